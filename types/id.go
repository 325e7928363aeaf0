package types

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	formIDDateLayout = "02012006"
	CreatedAtLayout  = "02_01_2006: 15:04"
)

var formIDPattern = regexp.MustCompile(`^form_[0-9]{8}_[0-9a-f]{8}$`)

// suffixSequence hands out 8 hex digit suffixes. The start and the odd
// stride are random per process, so values never repeat within 2^32 calls.
type suffixSequence struct {
	next   atomic.Uint32
	stride uint32
}

func newSuffixSequence() *suffixSequence {
	u := uuid.New()
	s := &suffixSequence{stride: binary.BigEndian.Uint32(u[4:8]) | 1}
	s.next.Store(binary.BigEndian.Uint32(u[0:4]))
	return s
}

func (s *suffixSequence) Next() string {
	return fmt.Sprintf("%08x", s.next.Add(s.stride))
}

var formSuffixes = newSuffixSequence()

// NewFormID returns form_<DDMMYYYY>_<8 hex>. The id does not encode creation
// order; sort by CreatedAt instead.
func NewFormID(now time.Time) string {
	return "form_" + now.Format(formIDDateLayout) + "_" + formSuffixes.Next()
}

// ValidFormID reports whether id has the shape produced by NewFormID.
func ValidFormID(id string) bool {
	return formIDPattern.MatchString(id)
}

// ShortUUID returns the first 8 hex digits of a random UUID.
func ShortUUID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

func FormatCreatedAt(t time.Time) string {
	return t.Format(CreatedAtLayout)
}

func ParseCreatedAt(s string) (time.Time, error) {
	return time.ParseInLocation(CreatedAtLayout, s, time.Local)
}

// NewDocument wraps generated content into a persisted document.
func NewDocument(content FormContent, now time.Time) *FormDocument {
	return &FormDocument{
		FormID:      NewFormID(now),
		CreatedAt:   FormatCreatedAt(now),
		FormContent: content,
	}
}
