package ticketview

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"bilhete/models"
	"bilhete/upstream"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var qrSecret = func() []byte {
	if s := os.Getenv("QR_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev_qr_secret_change_me")
}()

// signedPayload returns ticketID|ticketCode|timestamp|signature. The gate
// scanner recomputes the HMAC to reject forged codes.
func signedPayload(t models.LocalTicket) string {
	data := fmt.Sprintf("%s|%s|%d", t.ID, t.TicketCode, time.Now().Unix())
	h := hmac.New(sha256.New, qrSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// Service fetches the user's tickets and renders QR codes on demand. A QR is
// generated at most once per ticket per process lifetime; repeat views hit the
// cache. Generation capability is initialized once behind a readiness gate
// that every caller waits on.
type Service struct {
	api *upstream.Client

	mu sync.Mutex
	qr map[string]string // ticket id -> data URI

	once  sync.Once
	ready chan struct{}
}

func NewService(api *upstream.Client) *Service {
	return &Service{
		api:   api,
		qr:    make(map[string]string),
		ready: make(chan struct{}),
	}
}

// warm probes the QR encoder once so the first real render never pays the
// initialization cost inside a request with a short deadline.
func (s *Service) warm() {
	if _, err := qrcode.Encode("bilhete-warmup", qrcode.Medium, 64); err != nil {
		log.Println("ticketview: qr warmup failed:", err)
	}
	close(s.ready)
}

func (s *Service) ensureReady(ctx context.Context) error {
	s.once.Do(func() { go s.warm() })
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tickets returns the user's tickets derived from their payment history.
func (s *Service) Tickets(ctx context.Context, token string) ([]models.LocalTicket, error) {
	raw, err := s.api.Do(ctx, http.MethodGet, "/payments/list-user-payments", token, nil)
	if err != nil {
		return nil, err
	}
	var records []models.PaymentRecord
	if err := upstream.Unwrap(raw, "payments", &records); err != nil {
		return nil, err
	}
	return FromPayments(records), nil
}

// QRCode returns the ticket's QR image as a PNG data URI, generating and
// caching it on first request.
func (s *Service) QRCode(ctx context.Context, t models.LocalTicket) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if uri, ok := s.qr[t.ID]; ok {
		return uri, nil
	}

	png, err := qrcode.Encode(signedPayload(t), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	s.qr[t.ID] = uri
	return uri, nil
}

// qrPNG returns the raw PNG for embedding in the PDF, reusing the cached
// payload when the user already viewed the code.
func (s *Service) qrPNG(ctx context.Context, t models.LocalTicket) ([]byte, error) {
	uri, err := s.QRCode(ctx, t)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(uri[len("data:image/png;base64,"):])
}

// TicketPDF renders a printable ticket with the embedded QR.
func (s *Service) TicketPDF(ctx context.Context, t models.LocalTicket) ([]byte, error) {
	png, err := s.qrPNG(ctx, t)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Bilhete")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Event: %s", t.EventName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s %s", t.EventDate, t.EventTime))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Location: %s", t.EventLocation))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Code: %s", t.TicketCode))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Quantity: %d", t.Quantity))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
