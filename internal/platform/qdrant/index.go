package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

const (
	payloadSkillIDKey    = "skill_id"
	payloadVersionIDKey  = "version_id"
	payloadVisibilityKey = "visibility"
	maxErrorBodyBytes    = 1024
)

// Index stores skill embeddings as qdrant points keyed by embedding id.
type Index struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

var _ vectorindex.Index = (*Index)(nil)

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type searchHit struct {
	ID    json.RawMessage `json:"id"`
	Score float64         `json:"score"`
}

func NewIndex(log *logger.Logger, cfg Config, client *http.Client) (*Index, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		cfg.Collection = DefaultCollection
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Index{
		log:     log.With("service", "QdrantIndex"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    client,
	}, nil
}

func (s *Index) Name() string { return "qdrant" }

// EnsureCollection creates the collection with cosine distance when missing
// and checks the vector size when present.
func (s *Index) EnsureCollection(ctx context.Context) error {
	const op = "ensure_collection"
	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &info)
	var oe *OperationError
	switch {
	case err == nil:
		if size := info.Config.Params.Vectors.Size; size != 0 && size != s.cfg.VectorDim {
			return &OperationError{
				Code:      OperationErrorValidation,
				Operation: op,
				Message:   fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", s.cfg.Collection, s.cfg.VectorDim, size),
			}
		}
		return nil
	case errors.As(err, &oe) && oe.StatusCode == http.StatusNotFound:
		req := map[string]any{
			"vectors": map[string]any{"size": s.cfg.VectorDim, "distance": "Cosine"},
		}
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath(""), req, nil); err != nil {
			return err
		}
		s.log.Info("Qdrant collection created", "collection", s.cfg.Collection, "vector_dim", s.cfg.VectorDim)
		return nil
	default:
		return err
	}
}

func (s *Index) Query(ctx context.Context, vector []float32, filter vectorindex.Filter, limit int) ([]vectorindex.Match, error) {
	const op = "query"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if len(vector) != s.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(vector)), nil)
	}
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": false,
		"with_vector":  false,
	}
	if len(filter.Visibility) > 0 {
		translated, err := translateFilterMap(visibilityFilter(filter))
		if err != nil {
			return nil, err
		}
		req["filter"] = translated.asMap()
	}

	var hits []searchHit
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &hits); err != nil {
		return nil, err
	}
	out := make([]vectorindex.Match, 0, len(hits))
	for _, h := range hits {
		id, ok := decodePointID(h.ID)
		if !ok {
			s.log.Warn("qdrant returned non-uuid point id", "id", string(h.ID))
			continue
		}
		out = append(out, vectorindex.Match{ID: id, Score: h.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *Index) Upsert(ctx context.Context, records []vectorindex.Record) error {
	const op = "upsert"
	points := make([]map[string]any, 0, len(records))
	payloadOnly := map[types.Visibility][]string{}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			return opErr(op, OperationErrorValidation, "record id is required", nil)
		}
		if len(rec.Vector) == 0 {
			payloadOnly[rec.Visibility] = append(payloadOnly[rec.Visibility], rec.ID.String())
			continue
		}
		if len(rec.Vector) != s.cfg.VectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("record %s dimension mismatch: expected=%d got=%d", rec.ID, s.cfg.VectorDim, len(rec.Vector)), nil)
		}
		points = append(points, map[string]any{
			"id":     rec.ID.String(),
			"vector": rec.Vector,
			"payload": map[string]any{
				payloadSkillIDKey:    rec.SkillID.String(),
				payloadVersionIDKey:  rec.VersionID.String(),
				payloadVisibilityKey: string(rec.Visibility),
			},
		})
	}
	if len(points) > 0 {
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
			return err
		}
	}

	visibilities := make([]string, 0, len(payloadOnly))
	for v := range payloadOnly {
		visibilities = append(visibilities, string(v))
	}
	sort.Strings(visibilities)
	for _, v := range visibilities {
		req := map[string]any{
			"payload": map[string]any{payloadVisibilityKey: v},
			"points":  payloadOnly[types.Visibility(v)],
		}
		if err := s.doJSON(ctx, "set_payload", http.MethodPost, s.collectionPath("/points/payload?wait=true"), req, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Index) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]string, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		points = append(points, id.String())
	}
	return s.doJSON(ctx, "delete", http.MethodPost, s.collectionPath("/points/delete?wait=true"), map[string]any{"points": points}, nil)
}

func visibilityFilter(f vectorindex.Filter) map[string]any {
	clauses := make([]map[string]any, 0, len(f.Visibility))
	for _, v := range f.Strings() {
		clauses = append(clauses, map[string]any{payloadVisibilityKey: map[string]any{filterOpEq: v}})
	}
	return map[string]any{filterOpOr: clauses}
}

func (s *Index) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode envelope failed", err)
	}
	if msg := envelopeStatusError(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorRequestFailed, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return opErr(op, OperationErrorTimeout, "request timed out", err)
	}
	return opErr(op, OperationErrorTransportFailed, "request failed", err)
}

// envelopeStatusError returns "" for an ok status.
func envelopeStatusError(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if strings.EqualFold(asString, "ok") || strings.EqualFold(asString, "acknowledged") {
			return ""
		}
		return fmt.Sprintf("status=%q", asString)
	}
	var asObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil && strings.TrimSpace(asObject.Error) != "" {
		return strings.TrimSpace(asObject.Error)
	}
	return "status=" + status
}

func decodePointID(raw json.RawMessage) (uuid.UUID, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func (s *Index) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}
