package aggregates

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	domainagg "github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
)

func TestMapError_PassesDomainErrorsThrough(t *testing.T) {
	orig := domainagg.NewError(domainagg.CodeInvalidTransition, "piece_mark.status", "fabricating -> installed", nil)
	mapped := MapError("piece_mark.advance", orig)
	if mapped != orig {
		t.Fatalf("domain error should pass through unchanged, got %v", mapped)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("piece_mark.advance", ConflictError("stale version"))
	if !domainagg.IsCode(err, domainagg.CodeConcurrentModification) {
		t.Fatalf("code = %q, want concurrent_modification", domainagg.CodeOf(err))
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("piece_mark.get", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("code = %q, want not_found", domainagg.CodeOf(err))
	}
}

func TestMapError_Unknown(t *testing.T) {
	err := MapError("piece_mark.get", errors.New("disk on fire"))
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("code = %q, want internal", domainagg.CodeOf(err))
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := RequireCASSuccess(false, "stale")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !domainagg.IsCode(MapError("op", err), domainagg.CodeConcurrentModification) {
		t.Fatalf("mapped code = %q, want concurrent_modification", domainagg.CodeOf(MapError("op", err)))
	}
}
