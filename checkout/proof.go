package checkout

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxProofSize bounds the uploaded proof-of-transfer image.
const MaxProofSize = 5 << 20 // 5MB

// maxProofWidth keeps the re-encoded proof small enough for the upstream's
// non-multipart JSON payment call.
const maxProofWidth = 1600

// EncodeProof validates a proof-of-transfer upload and returns it as a base64
// string ready for the JSON payment request. Oversized images are downscaled
// before encoding.
func EncodeProof(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", &ValidationError{Field: "proofImage", Msg: "a proof of transfer image is required"}
	}
	if len(data) > MaxProofSize {
		return "", &ValidationError{Field: "proofImage", Msg: "proof image exceeds the 5MB limit"}
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", &ValidationError{Field: "proofImage", Msg: "proof must be an image file"}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &ValidationError{Field: "proofImage", Msg: "proof image could not be read"}
	}

	if img.Bounds().Dx() > maxProofWidth {
		img = imaging.Resize(img, maxProofWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", err
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
