package api

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ledgersync/exception"
	"ledgersync/ledger"
	"ledgersync/logx"
	"ledgersync/store"
)

// Server answers peer queries about this node's digest. It is a pure read
// path: ordinary "not yet available" situations are encoded as 200 with an
// explanatory body so peers can poll it with nothing more than a GET.
type Server struct {
	Ledger      *ledger.Ledger
	Checkpoints *store.CheckpointStore
	ListenAddr  string

	mux *http.ServeMux
}

func NewServer(ld *ledger.Ledger, checkpoints *store.CheckpointStore, addr string) *Server {
	s := &Server{
		Ledger:      ld,
		Checkpoints: checkpoints,
		ListenAddr:  addr,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("/rootHash", s.handleRootHash)
	return s
}

// Mux exposes the server's mux so extra handlers (metrics) can be attached
// before Start.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) Start() {
	httpServer := &http.Server{
		Addr:         s.ListenAddr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logx.Info("API", "Listening on ", s.ListenAddr)
	exception.SafeGo("api-server", func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Error("API", "Server stopped: ", err)
		}
	})
}

// handleRootHash serves GET /rootHash?blockNumber=<n>.
//
// For the current position it returns the current digest (hex, possibly an
// empty body when there is none yet); for a past position the certified
// digest, or the literal not-found body; anything else is an invalid
// position. Response bodies are fixed strings peers parse, so they must not
// change.
func (s *Server) handleRootHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain")

	position, err := strconv.ParseUint(r.URL.Query().Get("blockNumber"), 10, 64)
	if err != nil {
		fmt.Fprint(w, "Invalid block number")
		return
	}

	last, err := s.Checkpoints.LastPosition()
	if err != nil {
		logx.Error("API", "Failed to read last position: ", err)
		http.Error(w, "Failed to get last checked position", http.StatusInternalServerError)
		return
	}

	switch {
	case position == last:
		rootHash, err := s.Ledger.RootHash()
		if err != nil {
			logx.Error("API", "Failed to read root hash: ", err)
			http.Error(w, "Failed to get current root hash", http.StatusInternalServerError)
			return
		}
		// Empty body when there is no digest yet.
		fmt.Fprint(w, hex.EncodeToString(rootHash))

	case position < last && position > 0:
		certified, err := s.Checkpoints.CertifiedRoot(position)
		if err != nil {
			logx.Error("API", "Failed to read certified root: ", err)
			http.Error(w, "Failed to get block root hash", http.StatusInternalServerError)
			return
		}
		if certified == nil {
			fmt.Fprintf(w, "Block root hash not found for block number: %d", position)
			return
		}
		fmt.Fprint(w, hex.EncodeToString(certified))

	default:
		fmt.Fprint(w, "Invalid block number")
	}
}
