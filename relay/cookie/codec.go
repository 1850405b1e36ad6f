package cookie

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	msgpack "github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	NonceSize = 24

	// Version is bumped when the sealed layout changes.
	Version uint = 1
)

type (
	Key   = [KeySize]byte
	Nonce = [NonceSize]byte
)

var (
	encoding = base64.RawURLEncoding

	compressor, _   = zstd.NewWriter(nil)
	decompressor, _ = zstd.NewReader(nil)

	ErrFormat       = errors.New("malformed tempdata cookie")
	ErrDecrypt      = errors.New("tempdata cookie failed authentication")
	ErrIncompatible = errors.New("incompatible tempdata cookie version")
	ErrExpired      = errors.New("tempdata cookie expired")
)

type envelope struct {
	Version     uint           `msgpack:"v"`
	ValidBefore time.Time      `msgpack:"b,omitempty"`
	Values      map[string]any `msgpack:"d"`
}

// Codec seals relay values into a cookie-safe string:
// msgpack, then zstd, then secretbox with a random nonce prefix, then
// unpadded base64url.
type Codec struct {
	key  *Key
	rand io.Reader
	now  func() time.Time
}

// NewCodec returns a Codec sealing with key.
func NewCodec(key *Key) *Codec {
	return &Codec{key: key, rand: rand.Reader, now: time.Now}
}

// GenerateKey reads a fresh key from r (crypto/rand when nil).
func GenerateKey(r io.Reader) (*Key, error) {
	if r == nil {
		r = rand.Reader
	}
	key := new(Key)
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read key bytes from entropy source")
	}
	return key, nil
}

// Encode seals values. A positive ttl bounds how long Decode accepts them.
func (c *Codec) Encode(values map[string]any, ttl time.Duration) (string, error) {
	env := envelope{Version: Version, Values: values}
	if ttl > 0 {
		env.ValidBefore = c.now().Add(ttl).UTC()
	}
	buf, err := msgpack.Marshal(&env)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal tempdata")
	}

	nonce := new(Nonce)
	if _, err := io.ReadFull(c.rand, nonce[:]); err != nil {
		return "", errors.Wrap(err, "failed to read nonce bytes from entropy source")
	}
	box := make([]byte, NonceSize)
	copy(box, nonce[:])
	box = secretbox.Seal(box, compressor.EncodeAll(buf, make([]byte, 0, len(buf))), nonce, c.key)

	return encoding.EncodeToString(box), nil
}

// Decode opens a value produced by Encode.
func (c *Codec) Decode(s string) (map[string]any, error) {
	box, err := encoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(ErrFormat, err.Error())
	}
	if len(box) < NonceSize+secretbox.Overhead {
		return nil, errors.Wrapf(ErrFormat, "sealed size %d", len(box))
	}

	var nonce Nonce
	copy(nonce[:], box[:NonceSize])
	compressed, ok := secretbox.Open(nil, box[NonceSize:], &nonce, c.key)
	if !ok {
		return nil, ErrDecrypt
	}
	buf, err := decompressor.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress tempdata")
	}

	var env envelope
	if err := msgpack.Unmarshal(buf, &env); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tempdata")
	}
	if env.Version != Version {
		return nil, errors.Wrapf(ErrIncompatible, "want %d, got %d", Version, env.Version)
	}
	if !env.ValidBefore.IsZero() && !c.now().Before(env.ValidBefore) {
		return nil, errors.Wrapf(ErrExpired, "valid before %s", env.ValidBefore)
	}
	return env.Values, nil
}
