package subsonic

import "encoding/xml"

// Version is the Subsonic API level the bridge speaks.
const Version = "1.16.1"

// XMLNS is the namespace carried by every XML response envelope.
const XMLNS = "http://subsonic.org/restapi"

// Subsonic error codes.
const (
	CodeGeneric          = 0
	CodeMissingParameter = 10
	CodeWrongCredentials = 40
	CodeNotAuthorized    = 50
	CodeNotFound         = 70
)

// Response is the subsonic-response envelope common to every endpoint.
// Exactly one payload field is set; all are nil on an empty "ok" reply.
type Response struct {
	XMLName xml.Name `xml:"subsonic-response" json:"-"`
	XMLNS   string   `xml:"xmlns,attr" json:"-"`
	Status  string   `xml:"status,attr" json:"status"`
	Version string   `xml:"version,attr" json:"version"`

	Error          *Error             `xml:"error,omitempty" json:"error,omitempty"`
	License        *License           `xml:"license,omitempty" json:"license,omitempty"`
	MusicFolders   *MusicFolders      `xml:"musicFolders,omitempty" json:"musicFolders,omitempty"`
	Indexes        *Indexes           `xml:"indexes,omitempty" json:"indexes,omitempty"`
	Artists        *ArtistsID3        `xml:"artists,omitempty" json:"artists,omitempty"`
	Artist         *ArtistWithAlbums  `xml:"artist,omitempty" json:"artist,omitempty"`
	Album          *AlbumWithSongs    `xml:"album,omitempty" json:"album,omitempty"`
	Song           *Child             `xml:"song,omitempty" json:"song,omitempty"`
	Genres         *Genres            `xml:"genres,omitempty" json:"genres,omitempty"`
	AlbumList      *AlbumList         `xml:"albumList,omitempty" json:"albumList,omitempty"`
	AlbumList2     *AlbumList2        `xml:"albumList2,omitempty" json:"albumList2,omitempty"`
	RandomSongs    *Songs             `xml:"randomSongs,omitempty" json:"randomSongs,omitempty"`
	Starred        *Starred           `xml:"starred,omitempty" json:"starred,omitempty"`
	Starred2       *Starred2          `xml:"starred2,omitempty" json:"starred2,omitempty"`
	SearchResult2  *SearchResult2     `xml:"searchResult2,omitempty" json:"searchResult2,omitempty"`
	SearchResult3  *SearchResult3     `xml:"searchResult3,omitempty" json:"searchResult3,omitempty"`
	Playlists      *Playlists         `xml:"playlists,omitempty" json:"playlists,omitempty"`
	Playlist       *PlaylistWithSongs `xml:"playlist,omitempty" json:"playlist,omitempty"`
	ScanStatus     *ScanStatus        `xml:"scanStatus,omitempty" json:"scanStatus,omitempty"`
	User           *User              `xml:"user,omitempty" json:"user,omitempty"`
	Podcasts       *Podcasts          `xml:"podcasts,omitempty" json:"podcasts,omitempty"`
	NewestPodcasts *NewestPodcasts    `xml:"newestPodcasts,omitempty" json:"newestPodcasts,omitempty"`
}

// Error is the failure payload inside a "failed" envelope.
type Error struct {
	Code    int    `xml:"code,attr" json:"code"`
	Message string `xml:"message,attr" json:"message"`
}

// NewResponse returns an empty "ok" envelope.
func NewResponse() *Response {
	return &Response{XMLNS: XMLNS, Status: "ok", Version: Version}
}

// NewError returns a "failed" envelope carrying code and message.
func NewError(code int, message string) *Response {
	return &Response{
		XMLNS:   XMLNS,
		Status:  "failed",
		Version: Version,
		Error:   &Error{Code: code, Message: message},
	}
}

// Envelope wraps a Response for JSON output, which nests everything
// under a "subsonic-response" key.
type Envelope struct {
	Response *Response `json:"subsonic-response"`
}
