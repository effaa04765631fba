package subsonic

import (
	"net/http"

	"github.com/mikey-austin/mpdsub/internal/catalog"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	status, err := s.catalog.StartScan(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderScanStatus(w, r, status)
}

func (s *Server) handleGetScanStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.catalog.Scanning(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderScanStatus(w, r, status)
}

func (s *Server) renderScanStatus(w http.ResponseWriter, r *http.Request, status catalog.ScanStatus) {
	resp := wire.NewResponse()
	resp.ScanStatus = &wire.ScanStatus{
		Scanning: status.Scanning,
		Count:    int64(status.Count),
	}
	s.render(w, r, resp)
}
