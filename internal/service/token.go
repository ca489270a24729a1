package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	queryAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	lowerAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"

	secretMinLen = 50
	secretMaxLen = 255
	queryMinLen  = 20
	queryMaxLen  = 32
	pathKeyLen   = 16
)

var specifierWords = []string{
	"amber", "anchor", "apple", "arrow", "aspen", "autumn", "badge", "basil",
	"beacon", "birch", "blossom", "breeze", "brook", "cactus", "candle", "canyon",
	"cedar", "cherry", "cinder", "clover", "cobalt", "comet", "coral", "cotton",
	"crane", "crystal", "dawn", "delta", "desert", "drift", "ember", "falcon",
	"fern", "flint", "forest", "frost", "garnet", "glacier", "harbor", "hazel",
	"heron", "indigo", "island", "ivory", "jasmine", "juniper", "lagoon", "lantern",
	"lemon", "lotus", "maple", "meadow", "mist", "moss", "nectar", "ocean",
	"olive", "orchid", "pebble", "pine", "plum", "quartz", "raven", "river",
	"saffron", "sage", "shadow", "sierra", "spruce", "stone", "summit", "thistle",
	"thunder", "tulip", "valley", "velvet", "willow", "winter", "zephyr", "zinc",
}

// CredentialService draws bot and link credentials from crypto/rand.
type CredentialService struct{}

func NewCredentialService() *CredentialService {
	return &CredentialService{}
}

// intn returns a uniform integer in [0, n).
func intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}

// between returns a uniform integer in [lo, hi].
func between(lo, hi int) int {
	return lo + intn(hi-lo+1)
}

func randomString(alphabet string, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[intn(len(alphabet))])
	}
	return sb.String()
}

// Secret is a webhook secret token of 50 to 255 characters.
func (s *CredentialService) Secret() string {
	return randomString(secretAlphabet, between(secretMinLen, secretMaxLen))
}

// URLSpecifier is 1 to 4 slash-separated segments of 1 to 4 words joined by
// "-", followed by a random key segment of pathKeyLen characters.
func (s *CredentialService) URLSpecifier() string {
	segments := make([]string, between(1, 4), 5)
	for i := range segments {
		words := make([]string, between(1, 4))
		for j := range words {
			words[j] = specifierWords[intn(len(specifierWords))]
		}
		segments[i] = strings.Join(words, "-")
	}
	segments = append(segments, randomString(lowerAlphabet, pathKeyLen))
	return strings.Join(segments, "/")
}

// DomainName is a random subdomain of a random member of pool.
func (s *CredentialService) DomainName(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return randomString(lowerAlphabet, between(8, 16)) + "." + pool[intn(len(pool))]
}

// QueryID is a share-link key of 20 to 32 URL-safe characters.
func (s *CredentialService) QueryID() string {
	return randomString(queryAlphabet, between(queryMinLen, queryMaxLen))
}

// Username is a generated chat-user handle.
func (s *CredentialService) Username() string {
	return "tg_" + randomString(lowerAlphabet, 12)
}
