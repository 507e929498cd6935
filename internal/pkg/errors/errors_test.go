package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "full error",
			err: &Error{
				Code:    CodeRenderFailed,
				Message: "renderer exited non-zero",
				Op:      "render.wait",
				Err:     stderrors.New("exit status 1"),
			},
			want: "render.wait: [RENDER_FAILED] renderer exited non-zero: exit status 1",
		},
		{
			name: "no op",
			err:  New(CodeValidation, "prompt is required"),
			want: "[VALIDATION_ERROR] prompt is required",
		},
		{
			name: "no code",
			err:  &Error{Message: "something broke"},
			want: "something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := New(CodeRenderTimeout, "deadline exceeded")
	wrapped := Wrap(inner, "pipeline.render", "render step failed")

	if wrapped.Code != CodeRenderTimeout {
		t.Errorf("expected code %s, got %s", CodeRenderTimeout, wrapped.Code)
	}
	if !stderrors.Is(wrapped, inner) {
		t.Error("expected wrapped error to match inner via errors.Is")
	}
}

func TestWrapDefaultsToInternal(t *testing.T) {
	wrapped := Wrap(stderrors.New("disk full"), "store.put", "persist failed")
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "msg") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
	if WrapWithCode(nil, CodeInternal, "op", "msg") != nil {
		t.Error("expected WrapWithCode(nil) to return nil")
	}
}

func TestWrapWithCode(t *testing.T) {
	err := WrapWithCode(stderrors.New("boom"), CodeInvalidCode, "sanitize", "structure check failed")
	if err.Code != CodeInvalidCode {
		t.Errorf("expected code %s, got %s", CodeInvalidCode, err.Code)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected underlying message in %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, 400},
		{CodeNotFound, 404},
		{CodeTimeout, 504},
		{CodeRenderTimeout, 504},
		{CodeUnavailable, 503},
		{CodeInternal, 500},
		{CodeGeneration, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(CodeMissingArtifact, "no output")); got != CodeMissingArtifact {
		t.Errorf("GetCode = %s, want %s", got, CodeMissingArtifact)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeInternal {
		t.Errorf("GetCode(plain) = %s, want %s", got, CodeInternal)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFound("job", "abc")) {
		t.Error("expected NotFound error to be detected")
	}
	if IsNotFound(New(CodeInternal, "x")) {
		t.Error("did not expect internal error to be not-found")
	}
}
