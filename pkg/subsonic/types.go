package subsonic

import "time"

// License reports license validity; the bridge is always licensed.
type License struct {
	Valid bool `xml:"valid,attr" json:"valid"`
}

// MusicFolders lists the top-level folders of the library.
type MusicFolders struct {
	MusicFolder []MusicFolder `xml:"musicFolder" json:"musicFolder,omitempty"`
}

// MusicFolder is a single library root.
type MusicFolder struct {
	ID   string `xml:"id,attr" json:"id"`
	Name string `xml:"name,attr,omitempty" json:"name,omitempty"`
}

// Indexes is the folder-style artist listing grouped by initial.
type Indexes struct {
	LastModified    int64   `xml:"lastModified,attr" json:"lastModified"`
	IgnoredArticles string  `xml:"ignoredArticles,attr" json:"ignoredArticles"`
	Index           []Index `xml:"index" json:"index,omitempty"`
}

// Index groups artists under one initial.
type Index struct {
	Name   string   `xml:"name,attr" json:"name"`
	Artist []Artist `xml:"artist" json:"artist,omitempty"`
}

// Artist is the folder-style artist entry.
type Artist struct {
	ID      string     `xml:"id,attr" json:"id"`
	Name    string     `xml:"name,attr" json:"name"`
	Starred *time.Time `xml:"starred,attr,omitempty" json:"starred,omitempty"`
}

// ArtistsID3 is the tag-organized artist listing.
type ArtistsID3 struct {
	IgnoredArticles string     `xml:"ignoredArticles,attr" json:"ignoredArticles"`
	Index           []IndexID3 `xml:"index" json:"index,omitempty"`
}

// IndexID3 groups tag-organized artists under one initial.
type IndexID3 struct {
	Name   string      `xml:"name,attr" json:"name"`
	Artist []ArtistID3 `xml:"artist" json:"artist,omitempty"`
}

// ArtistID3 is a tag-organized artist.
type ArtistID3 struct {
	ID         string     `xml:"id,attr" json:"id"`
	Name       string     `xml:"name,attr" json:"name"`
	CoverArt   string     `xml:"coverArt,attr,omitempty" json:"coverArt,omitempty"`
	AlbumCount int        `xml:"albumCount,attr" json:"albumCount"`
	Starred    *time.Time `xml:"starred,attr,omitempty" json:"starred,omitempty"`
}

// ArtistWithAlbums is an artist together with its albums.
type ArtistWithAlbums struct {
	ArtistID3
	Album []AlbumID3 `xml:"album" json:"album,omitempty"`
}

// AlbumID3 is a tag-organized album.
type AlbumID3 struct {
	ID        string     `xml:"id,attr" json:"id"`
	Name      string     `xml:"name,attr" json:"name"`
	Artist    string     `xml:"artist,attr,omitempty" json:"artist,omitempty"`
	ArtistID  string     `xml:"artistId,attr,omitempty" json:"artistId,omitempty"`
	CoverArt  string     `xml:"coverArt,attr,omitempty" json:"coverArt,omitempty"`
	SongCount int        `xml:"songCount,attr" json:"songCount"`
	Duration  int        `xml:"duration,attr" json:"duration"`
	Created   *time.Time `xml:"created,attr,omitempty" json:"created,omitempty"`
	Year      int        `xml:"year,attr,omitempty" json:"year,omitempty"`
	Genre     string     `xml:"genre,attr,omitempty" json:"genre,omitempty"`
	Starred   *time.Time `xml:"starred,attr,omitempty" json:"starred,omitempty"`
}

// AlbumWithSongs is an album together with its songs.
type AlbumWithSongs struct {
	AlbumID3
	Song []Child `xml:"song" json:"song,omitempty"`
}

// Child is a single track (or folder-style album) entry.
type Child struct {
	ID          string     `xml:"id,attr" json:"id"`
	Parent      string     `xml:"parent,attr,omitempty" json:"parent,omitempty"`
	IsDir       bool       `xml:"isDir,attr" json:"isDir"`
	Title       string     `xml:"title,attr" json:"title"`
	Album       string     `xml:"album,attr,omitempty" json:"album,omitempty"`
	Artist      string     `xml:"artist,attr,omitempty" json:"artist,omitempty"`
	Track       int        `xml:"track,attr,omitempty" json:"track,omitempty"`
	Year        int        `xml:"year,attr,omitempty" json:"year,omitempty"`
	Genre       string     `xml:"genre,attr,omitempty" json:"genre,omitempty"`
	CoverArt    string     `xml:"coverArt,attr,omitempty" json:"coverArt,omitempty"`
	Size        int64      `xml:"size,attr,omitempty" json:"size,omitempty"`
	ContentType string     `xml:"contentType,attr,omitempty" json:"contentType,omitempty"`
	Suffix      string     `xml:"suffix,attr,omitempty" json:"suffix,omitempty"`
	Duration    int        `xml:"duration,attr,omitempty" json:"duration,omitempty"`
	BitRate     int        `xml:"bitRate,attr,omitempty" json:"bitRate,omitempty"`
	Path        string     `xml:"path,attr,omitempty" json:"path,omitempty"`
	DiscNumber  int        `xml:"discNumber,attr,omitempty" json:"discNumber,omitempty"`
	Created     *time.Time `xml:"created,attr,omitempty" json:"created,omitempty"`
	AlbumID     string     `xml:"albumId,attr,omitempty" json:"albumId,omitempty"`
	ArtistID    string     `xml:"artistId,attr,omitempty" json:"artistId,omitempty"`
	Type        string     `xml:"type,attr,omitempty" json:"type,omitempty"`
	Starred     *time.Time `xml:"starred,attr,omitempty" json:"starred,omitempty"`
	UserRating  int        `xml:"userRating,attr,omitempty" json:"userRating,omitempty"`
}

// Genres lists the genres present in the library.
type Genres struct {
	Genre []Genre `xml:"genre" json:"genre,omitempty"`
}

// Genre carries its name as character data in the XML form.
type Genre struct {
	SongCount  int    `xml:"songCount,attr" json:"songCount"`
	AlbumCount int    `xml:"albumCount,attr" json:"albumCount"`
	Value      string `xml:",chardata" json:"value"`
}

// AlbumList is the folder-style album list.
type AlbumList struct {
	Album []Child `xml:"album" json:"album,omitempty"`
}

// AlbumList2 is the tag-organized album list.
type AlbumList2 struct {
	Album []AlbumID3 `xml:"album" json:"album,omitempty"`
}

// Songs is a flat song list, used by getRandomSongs.
type Songs struct {
	Song []Child `xml:"song" json:"song,omitempty"`
}

// Starred lists starred entries in folder style.
type Starred struct {
	Artist []Artist `xml:"artist" json:"artist,omitempty"`
	Album  []Child  `xml:"album" json:"album,omitempty"`
	Song   []Child  `xml:"song" json:"song,omitempty"`
}

// Starred2 lists starred entries in tag-organized style.
type Starred2 struct {
	Artist []ArtistID3 `xml:"artist" json:"artist,omitempty"`
	Album  []AlbumID3  `xml:"album" json:"album,omitempty"`
	Song   []Child     `xml:"song" json:"song,omitempty"`
}

// SearchResult2 is the folder-style search reply.
type SearchResult2 struct {
	Artist []Artist `xml:"artist" json:"artist,omitempty"`
	Album  []Child  `xml:"album" json:"album,omitempty"`
	Song   []Child  `xml:"song" json:"song,omitempty"`
}

// SearchResult3 is the tag-organized search reply.
type SearchResult3 struct {
	Artist []ArtistID3 `xml:"artist" json:"artist,omitempty"`
	Album  []AlbumID3  `xml:"album" json:"album,omitempty"`
	Song   []Child     `xml:"song" json:"song,omitempty"`
}

// Playlists lists the stored playlists.
type Playlists struct {
	Playlist []Playlist `xml:"playlist" json:"playlist,omitempty"`
}

// Playlist is a stored playlist summary.
type Playlist struct {
	ID        string `xml:"id,attr" json:"id"`
	Name      string `xml:"name,attr" json:"name"`
	Owner     string `xml:"owner,attr,omitempty" json:"owner,omitempty"`
	Public    bool   `xml:"public,attr" json:"public"`
	SongCount int    `xml:"songCount,attr" json:"songCount"`
	Duration  int    `xml:"duration,attr" json:"duration"`
	Changed   string `xml:"changed,attr,omitempty" json:"changed,omitempty"`
}

// PlaylistWithSongs is a playlist together with its entries.
type PlaylistWithSongs struct {
	Playlist
	Entry []Child `xml:"entry" json:"entry,omitempty"`
}

// ScanStatus reports whether a library rescan is running.
type ScanStatus struct {
	Scanning bool  `xml:"scanning,attr" json:"scanning"`
	Count    int64 `xml:"count,attr,omitempty" json:"count,omitempty"`
}

// User describes the configured account and its roles.
type User struct {
	Username            string   `xml:"username,attr" json:"username"`
	ScrobblingEnabled   bool     `xml:"scrobblingEnabled,attr" json:"scrobblingEnabled"`
	AdminRole           bool     `xml:"adminRole,attr" json:"adminRole"`
	SettingsRole        bool     `xml:"settingsRole,attr" json:"settingsRole"`
	DownloadRole        bool     `xml:"downloadRole,attr" json:"downloadRole"`
	UploadRole          bool     `xml:"uploadRole,attr" json:"uploadRole"`
	PlaylistRole        bool     `xml:"playlistRole,attr" json:"playlistRole"`
	CoverArtRole        bool     `xml:"coverArtRole,attr" json:"coverArtRole"`
	CommentRole         bool     `xml:"commentRole,attr" json:"commentRole"`
	PodcastRole         bool     `xml:"podcastRole,attr" json:"podcastRole"`
	StreamRole          bool     `xml:"streamRole,attr" json:"streamRole"`
	JukeboxRole         bool     `xml:"jukeboxRole,attr" json:"jukeboxRole"`
	ShareRole           bool     `xml:"shareRole,attr" json:"shareRole"`
	VideoConversionRole bool     `xml:"videoConversionRole,attr" json:"videoConversionRole"`
	Folder              []string `xml:"folder" json:"folder,omitempty"`
}

// Podcasts lists the configured podcast channels.
type Podcasts struct {
	Channel []PodcastChannel `xml:"channel" json:"channel,omitempty"`
}

// PodcastChannel is a subscribed feed.
type PodcastChannel struct {
	ID          string           `xml:"id,attr" json:"id"`
	URL         string           `xml:"url,attr" json:"url"`
	Title       string           `xml:"title,attr,omitempty" json:"title,omitempty"`
	Description string           `xml:"description,attr,omitempty" json:"description,omitempty"`
	CoverArt    string           `xml:"coverArt,attr,omitempty" json:"coverArt,omitempty"`
	Status      string           `xml:"status,attr" json:"status"`
	Episode     []PodcastEpisode `xml:"episode" json:"episode,omitempty"`
}

// PodcastEpisode is one feed item.
type PodcastEpisode struct {
	ID          string     `xml:"id,attr" json:"id"`
	StreamID    string     `xml:"streamId,attr,omitempty" json:"streamId,omitempty"`
	ChannelID   string     `xml:"channelId,attr" json:"channelId"`
	Title       string     `xml:"title,attr,omitempty" json:"title,omitempty"`
	Description string     `xml:"description,attr,omitempty" json:"description,omitempty"`
	PublishDate *time.Time `xml:"publishDate,attr,omitempty" json:"publishDate,omitempty"`
	Status      string     `xml:"status,attr" json:"status"`
	Duration    int        `xml:"duration,attr,omitempty" json:"duration,omitempty"`
	ContentType string     `xml:"contentType,attr,omitempty" json:"contentType,omitempty"`
	Suffix      string     `xml:"suffix,attr,omitempty" json:"suffix,omitempty"`
}

// NewestPodcasts lists the most recently published episodes across all
// channels.
type NewestPodcasts struct {
	Episode []PodcastEpisode `xml:"episode" json:"episode,omitempty"`
}
