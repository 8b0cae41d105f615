// Package pay carries the replay protection for mutating payment endpoints.
// Clients retrying a submission (flaky mobile networks, double taps) send the
// same Idempotency-Key and get the original response back instead of a second
// charge attempt.
package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"bilhete/db"
	"bilhete/models"
	"bilhete/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recordTTL = 24 * time.Hour

// maxBodyBytes bounds the buffered request body. Transfer proofs run up to
// 5MB before multipart framing, so the cap leaves headroom above that; the
// whole body must be buffered or the hash misses replayed tails.
const maxBodyBytes = 8 << 20

var errDuplicateKey = errors.New("idempotency key already recorded")

// Records is the storage behind the replay cache. Insert reports a reused
// key as errDuplicateKey.
type Records interface {
	Insert(ctx context.Context, rec models.IdempotencyRecord) error
	Find(ctx context.Context, key string) (models.IdempotencyRecord, error)
	SaveResponse(ctx context.Context, key string, response map[string]interface{}) error
}

type mongoRecords struct{}

func NewMongoRecords() Records { return mongoRecords{} }

func (mongoRecords) Insert(ctx context.Context, rec models.IdempotencyRecord) error {
	_, err := db.IdempotencyCollection.InsertOne(ctx, rec)
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return errDuplicateKey
			}
		}
	}
	return err
}

func (mongoRecords) Find(ctx context.Context, key string) (models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := db.IdempotencyCollection.FindOne(ctx, bson.M{"key": key}).Decode(&rec)
	return rec, err
}

func (mongoRecords) SaveResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := db.IdempotencyCollection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"response": response}},
	)
	return err
}

// InitIndexes creates the unique-key and TTL indexes the replay cache
// relies on. Call once at startup.
func InitIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true).SetName("unique_key"),
		},
		{
			Keys:    bson.M{"expires_at": 1},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}
	_, err := db.IdempotencyCollection.Indexes().CreateMany(ctx, idxs)
	return err
}

// requestHash ties a key to one specific request. Reusing a key with a
// different body is a client bug and gets a conflict, not a replay.
func requestHash(r *http.Request, body []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recorder captures the handler's response so it can be cached for replays.
type recorder struct {
	w           http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{w: w, statusCode: http.StatusOK}
}

func (c *recorder) Header() http.Header { return c.w.Header() }

func (c *recorder) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.w.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *recorder) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.w.Write(b)
}

// Middleware wraps mutating routes with Idempotency-Key replay protection.
type Middleware struct {
	records Records
}

func NewMiddleware(records Records) *Middleware {
	return &Middleware{records: records}
}

// Idempotent wraps a mutating route. Without an Idempotency-Key header the
// request passes through untouched. With one:
//   - first arrival inserts a placeholder, runs the handler, and stores the
//     response on the record
//   - a replay with the same body returns the stored response
//   - a replay with a different body is rejected with 409
//   - a replay racing an in-flight original falls through to the handler,
//     which must be safe to run.
func (m *Middleware) Idempotent(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			next(w, r, ps)
			return
		}

		userID := utils.GetUserIDFromRequest(r)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) > maxBodyBytes {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		hash := requestHash(r, body, userID)
		now := time.Now()
		rec := models.IdempotencyRecord{
			Key:         key,
			Method:      r.Method,
			Path:        r.URL.Path,
			UserID:      userID,
			RequestHash: hash,
			CreatedAt:   now,
			ExpiresAt:   now.Add(recordTTL),
		}

		ctx := r.Context()
		err = m.records.Insert(ctx, rec)
		if err == nil {
			crw := newRecorder(w)
			next(crw, r, ps)

			var parsed interface{}
			if jerr := json.Unmarshal(crw.buf.Bytes(), &parsed); jerr != nil {
				parsed = crw.buf.String()
			}
			_ = m.records.SaveResponse(ctx, key, map[string]interface{}{
				"status": crw.statusCode,
				"body":   parsed,
			})
			return
		}

		if !errors.Is(err, errDuplicateKey) {
			http.Error(w, "idempotency lookup error", http.StatusInternalServerError)
			return
		}

		existing, err := m.records.Find(ctx, key)
		if err != nil {
			http.Error(w, "idempotency lookup error", http.StatusInternalServerError)
			return
		}

		if existing.RequestHash != hash {
			http.Error(w, "idempotency-key conflict", http.StatusConflict)
			return
		}

		if existing.Response != nil {
			// bson decodes numbers as int32/int64, json as float64
			var status int
			switch v := existing.Response["status"].(type) {
			case int:
				status = v
			case int32:
				status = int(v)
			case int64:
				status = int(v)
			case float64:
				status = int(v)
			}
			if status == 0 {
				status = http.StatusOK
			}
			utils.RespondWithJSON(w, status, existing.Response["body"])
			return
		}

		next(w, r, ps)
	}
}
