package output

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

// HumanPrinter prints human-readable output.
type HumanPrinter struct{}

// Print renders human output.
func (HumanPrinter) Print(v any) error {
	switch data := v.(type) {
	case PingResult:
		pterm.Success.Printfln("%s is up, speaking Subsonic %s", data.Server, data.Version)
		return nil
	case StreamURL:
		// Bare URL so the output pipes straight into a player.
		_, err := fmt.Println(data.URL)
		return err
	case *wire.SearchResult3:
		return printSearch(data)
	case *wire.ArtistsID3:
		return printArtists(data)
	case *wire.Playlists:
		return printPlaylists(data)
	case *wire.PlaylistWithSongs:
		return printPlaylist(data)
	case *wire.Songs:
		return printSongs(data.Song)
	case *wire.ScanStatus:
		printScanStatus(data)
		return nil
	default:
		_, err := fmt.Println("ok")
		return err
	}
}

func printSearch(res *wire.SearchResult3) error {
	if len(res.Artist)+len(res.Album)+len(res.Song) == 0 {
		pterm.Info.Println("no matches")
		return nil
	}
	if len(res.Artist) > 0 {
		data := pterm.TableData{{"ARTIST", "ALBUMS", "ID"}}
		for _, ar := range res.Artist {
			data = append(data, []string{ar.Name, strconv.Itoa(ar.AlbumCount), ar.ID})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
	}
	if len(res.Album) > 0 {
		data := pterm.TableData{{"ALBUM", "ARTIST", "YEAR", "SONGS", "ID"}}
		for _, al := range res.Album {
			data = append(data, []string{al.Name, al.Artist, formatYear(al.Year), strconv.Itoa(al.SongCount), al.ID})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
	}
	if len(res.Song) > 0 {
		return printSongs(res.Song)
	}
	return nil
}

func printArtists(artists *wire.ArtistsID3) error {
	data := pterm.TableData{{"ARTIST", "ALBUMS", "ID"}}
	for _, idx := range artists.Index {
		for _, ar := range idx.Artist {
			data = append(data, []string{ar.Name, strconv.Itoa(ar.AlbumCount), ar.ID})
		}
	}
	if len(data) == 1 {
		pterm.Info.Println("no artists")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printPlaylists(lists *wire.Playlists) error {
	if len(lists.Playlist) == 0 {
		pterm.Info.Println("no playlists")
		return nil
	}
	data := pterm.TableData{{"NAME", "SONGS", "LEN", "CHANGED", "ID"}}
	for _, pl := range lists.Playlist {
		data = append(data, []string{pl.Name, strconv.Itoa(pl.SongCount), formatSeconds(pl.Duration), pl.Changed, pl.ID})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printPlaylist(pl *wire.PlaylistWithSongs) error {
	pterm.Info.Printfln("%s (%d songs, %s)", pl.Name, pl.SongCount, formatSeconds(pl.Duration))
	return printSongs(pl.Entry)
}

func printSongs(songs []wire.Child) error {
	if len(songs) == 0 {
		pterm.Info.Println("no songs")
		return nil
	}
	data := pterm.TableData{{"TITLE", "ARTIST", "ALBUM", "LEN", "ID"}}
	for _, s := range songs {
		data = append(data, []string{s.Title, s.Artist, s.Album, formatSeconds(s.Duration), s.ID})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printScanStatus(st *wire.ScanStatus) {
	if st.Scanning {
		pterm.Info.Printfln("scan running, %d songs indexed", st.Count)
		return
	}
	pterm.Success.Printfln("idle, %d songs indexed", st.Count)
}

func formatSeconds(sec int) string {
	if sec <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func formatYear(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
