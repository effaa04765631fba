package subsonic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/catalog"
	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/playlists"
	"github.com/mikey-austin/mpdsub/internal/podcasts"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

// ignoredArticles mirrors the articles the index strips when sorting.
const ignoredArticles = "The El La Los Las Le Les"

// annotations fetches star and rating marks, degrading to empty maps
// when the daemon cannot answer. Browsing stays up while the daemon is
// down; only the marks go missing.
func (s *Server) annotations(ctx context.Context) catalog.Annotations {
	ann, err := s.catalog.Annotations(ctx)
	if err != nil {
		s.log.Debug("annotations unavailable", zap.Error(err))
		return catalog.Annotations{}
	}
	return ann
}

func starredAt(ann catalog.Annotations, id string) *time.Time {
	when, ok := ann.Starred[id]
	if !ok {
		return nil
	}
	out := when
	return &out
}

func childFromTrack(t *index.Track, ann catalog.Annotations) wire.Child {
	c := wire.Child{
		ID:          t.ID,
		Parent:      t.AlbumID,
		Title:       t.Title,
		Album:       t.Album,
		Artist:      t.Artist,
		Track:       t.Track,
		Year:        t.Year,
		Genre:       t.Genre,
		CoverArt:    t.ID,
		ContentType: t.ContentType,
		Suffix:      t.Suffix,
		Duration:    t.Duration,
		Path:        t.Path,
		DiscNumber:  t.Disc,
		AlbumID:     t.AlbumID,
		ArtistID:    t.ArtistID,
		Type:        "music",
		Starred:     starredAt(ann, t.ID),
		UserRating:  ann.Ratings[t.ID],
	}
	if !t.LastModified.IsZero() {
		created := t.LastModified
		c.Created = &created
	}
	return c
}

func childFromAlbum(al *index.Album, ann catalog.Annotations) wire.Child {
	c := wire.Child{
		ID:       al.ID,
		Parent:   al.ArtistID,
		IsDir:    true,
		Title:    al.Name,
		Album:    al.Name,
		Artist:   al.Artist,
		Year:     al.Year,
		Genre:    al.Genre,
		CoverArt: al.ID,
		Duration: al.Duration,
		AlbumID:  al.ID,
		ArtistID: al.ArtistID,
		Starred:  starredAt(ann, al.ID),
	}
	if !al.Created.IsZero() {
		created := al.Created
		c.Created = &created
	}
	return c
}

func albumID3(al *index.Album, ann catalog.Annotations) wire.AlbumID3 {
	a := wire.AlbumID3{
		ID:        al.ID,
		Name:      al.Name,
		Artist:    al.Artist,
		ArtistID:  al.ArtistID,
		CoverArt:  al.ID,
		SongCount: len(al.TrackIDs),
		Duration:  al.Duration,
		Year:      al.Year,
		Genre:     al.Genre,
		Starred:   starredAt(ann, al.ID),
	}
	if !al.Created.IsZero() {
		created := al.Created
		a.Created = &created
	}
	return a
}

func artistID3(ar *index.Artist, ann catalog.Annotations) wire.ArtistID3 {
	return wire.ArtistID3{
		ID:         ar.ID,
		Name:       ar.Name,
		AlbumCount: len(ar.AlbumIDs),
		Starred:    starredAt(ann, ar.ID),
	}
}

func artistEntry(ar *index.Artist, ann catalog.Annotations) wire.Artist {
	return wire.Artist{
		ID:      ar.ID,
		Name:    ar.Name,
		Starred: starredAt(ann, ar.ID),
	}
}

func playlistEntry(pl playlists.Playlist, owner string) wire.Playlist {
	out := wire.Playlist{
		ID:        pl.ID,
		Name:      pl.Name,
		Owner:     owner,
		Public:    true,
		SongCount: pl.SongCount,
		Duration:  pl.Duration,
	}
	if !pl.Changed.IsZero() {
		out.Changed = pl.Changed.UTC().Format(time.RFC3339)
	}
	return out
}

func podcastChannel(ch podcasts.Channel, withEpisodes bool) wire.PodcastChannel {
	out := wire.PodcastChannel{
		ID:          ch.ID,
		URL:         ch.URL,
		Title:       ch.Title,
		Description: ch.Description,
		Status:      ch.Status,
	}
	if withEpisodes {
		for _, ep := range ch.Episodes {
			out.Episode = append(out.Episode, podcastEpisode(ep))
		}
	}
	return out
}

func podcastEpisode(ep podcasts.Episode) wire.PodcastEpisode {
	out := wire.PodcastEpisode{
		ID:          ep.ID,
		StreamID:    ep.ID,
		ChannelID:   ep.ChannelID,
		Title:       ep.Title,
		Description: ep.Description,
		Status:      "completed",
		Duration:    ep.Duration,
		ContentType: ep.ContentType,
		Suffix:      ep.Suffix,
	}
	if !ep.Published.IsZero() {
		published := ep.Published
		out.PublishDate = &published
	}
	return out
}
