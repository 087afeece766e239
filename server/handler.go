package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/util/cache"
)

const (
	msgInvalidAddress   = "Valid Ethereum address required"
	msgMethodNotAllowed = "Method not allowed"
	msgResolutionFailed = "ENS resolution failed"

	OutcomeFound    = "found"
	OutcomeNoName   = "no_name"
	OutcomeFailed   = "failed"
	OutcomeCached   = "cached"
	OutcomeRejected = "rejected"
)

type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, addr common.Address) (prefs.Snapshot, error)
}

// preferenceEntries marshals as a JSON object that keeps key order.
type preferenceEntries []preferenceEntry

type preferenceEntry struct {
	Key   prefs.Key
	Value *string
}

func (p preferenceEntries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.Key))
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type ResolveResponse struct {
	ENS         *string           `json:"ens"`
	Preferences preferenceEntries `json:"preferences"`
}

// NewResolveResponse is the body served for a loaded snapshot.
func NewResolveResponse(snap prefs.Snapshot) ResolveResponse {
	resp := ResolveResponse{Preferences: preferenceEntries{}}
	if !snap.HasName() {
		return resp
	}
	name := *snap.Name
	resp.ENS = &name
	values := snap.Preferences()
	for _, k := range prefs.Keys() {
		resp.Preferences = append(resp.Preferences, preferenceEntry{Key: k, Value: values[k]})
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ResolveHandler serves GET /api/resolve?address=0x...
type ResolveHandler struct {
	loader    SnapshotLoader
	cache     *cache.Cache[ResolveResponse]
	timeout   time.Duration
	logger    *slog.Logger
	onOutcome func(string)
}

func NewResolveHandler(
	loader SnapshotLoader,
	c *cache.Cache[ResolveResponse],
	timeout time.Duration,
	logger *slog.Logger,
	onOutcome func(string),
) *ResolveHandler {
	if c == nil {
		c = cache.New[ResolveResponse](0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if onOutcome == nil {
		onOutcome = func(string) {}
	}
	return &ResolveHandler{
		loader:    loader,
		cache:     c,
		timeout:   timeout,
		logger:    logger,
		onOutcome: onOutcome,
	}
}

func (h *ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		h.onOutcome(OutcomeRejected)
		return
	}
	raw := r.URL.Query().Get("address")
	addr, err := jarviscommon.ParseAddress(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidAddress)
		h.onOutcome(OutcomeRejected)
		return
	}
	key := jarviscommon.LowerHex(addr)
	if resp, ok := h.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, resp)
		h.onOutcome(OutcomeCached)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	snap, err := h.loader.LoadSnapshot(ctx, addr)
	if err == nil && !snap.Complete() {
		failed := make([]string, 0, len(snap.FetchErrors))
		for k := range snap.FetchErrors {
			failed = append(failed, string(k))
		}
		h.logger.Warn("resolve returned partial preferences",
			"address", key,
			"failed_keys", failed,
			"request_id", RequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, msgResolutionFailed)
		h.onOutcome(OutcomeFailed)
		return
	}
	if err != nil {
		h.logger.Error("resolve failed",
			"address", key,
			"error", err,
			"request_id", RequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, msgResolutionFailed)
		h.onOutcome(OutcomeFailed)
		return
	}

	resp := NewResolveResponse(snap)
	h.cache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
	if resp.ENS == nil {
		h.onOutcome(OutcomeNoName)
	} else {
		h.onOutcome(OutcomeFound)
	}
}
