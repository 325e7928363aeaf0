// Package store persists form documents by form id.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tbxark/formbuilder/types"
)

var (
	ErrNotFound  = errors.New("form not found")
	ErrInvalidID = errors.New("invalid form id")
)

type Reader interface {
	Read(ctx context.Context, formID string) (*types.FormDocument, error)
}

// Writer creates or overwrites the document stored under doc.FormID.
type Writer interface {
	Write(ctx context.Context, doc *types.FormDocument) error
}

type Lister interface {
	List(ctx context.Context) ([]Summary, error)
}

type Store interface {
	Reader
	Writer
	Lister
}

// Summary is one row of the saved forms listing.
type Summary struct {
	FormID    string `json:"form_id"`
	Title     string `json:"form_title"`
	CreatedAt string `json:"created_at"`
}

func summarize(doc *types.FormDocument) Summary {
	return Summary{FormID: doc.FormID, Title: doc.FormContent.FormTitle, CreatedAt: doc.CreatedAt}
}

func checkID(formID string) error {
	if !types.ValidFormID(formID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, formID)
	}
	return nil
}

// sortNewestFirst orders by created_at descending. Unparseable timestamps
// sort last; ties fall back to the id.
func sortNewestFirst(items []Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, errI := types.ParseCreatedAt(items[i].CreatedAt)
		tj, errJ := types.ParseCreatedAt(items[j].CreatedAt)
		switch {
		case errI != nil && errJ != nil:
			return items[i].FormID > items[j].FormID
		case errI != nil:
			return false
		case errJ != nil:
			return true
		case !ti.Equal(tj):
			return ti.After(tj)
		default:
			return items[i].FormID > items[j].FormID
		}
	})
}
