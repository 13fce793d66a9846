// internal/services/pin_service.go
package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// Argon2id parameters. Tuned for a short secret that is verified on
// every PIN login.
const (
	argonMemory  = 64 * 1024
	argonTime    = 3
	argonThreads = 4
	argonSaltLen = 16
	argonKeyLen  = 32
)

// Trivially guessable PINs rejected regardless of length rules.
var weakPins = map[string]struct{}{
	"1234": {},
	"4321": {},
	"0000": {},
}

// PINService validates, hashes and verifies user PINs.
type PINService interface {
	// ValidateFormat returns a *utils.InvalidPINError describing the
	// first violated rule, or nil when the PIN is acceptable.
	ValidateFormat(pin string) error
	Hash(pin string) (string, error)
	// Verify never returns an error to the caller: malformed or
	// foreign hashes simply fail to match.
	Verify(pin, encodedHash string) bool
}

type pinService struct {
	minLength int
	maxLength int
}

func NewPINService(cfg *config.Config) PINService {
	return &pinService{
		minLength: cfg.PinMinLength,
		maxLength: cfg.PinMaxLength,
	}
}

func (s *pinService) ValidateFormat(pin string) error {
	if len(pin) < s.minLength || len(pin) > s.maxLength {
		return &utils.InvalidPINError{
			Reason: fmt.Sprintf("PIN must be %d to %d digits", s.minLength, s.maxLength),
		}
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return &utils.InvalidPINError{Reason: "PIN must contain only digits"}
		}
	}
	if _, weak := weakPins[pin]; weak {
		return &utils.InvalidPINError{Reason: "PIN is too predictable"}
	}
	if allSameDigit(pin) {
		return &utils.InvalidPINError{Reason: "PIN must not repeat a single digit"}
	}
	return nil
}

func allSameDigit(pin string) bool {
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			return false
		}
	}
	return true
}

func (s *pinService) Hash(pin string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(pin), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

func (s *pinService) Verify(pin, encodedHash string) bool {
	memory, timeCost, threads, salt, hash, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		utils.Logger.Warn("Rejecting PIN against malformed hash: ", err)
		return false
	}

	candidate := argon2.IDKey([]byte(pin), salt, timeCost, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, candidate) == 1
}

func decodeArgon2Hash(encodedHash string) (memory uint32, timeCost uint32, threads uint8, salt, hash []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	return memory, timeCost, threads, salt, hash, nil
}
