package validate

import (
	"errors"
	"testing"
)

type likeBody struct {
	UserID string `json:"userId" validate:"required"`
	ReelID string `json:"reelId" validate:"required"`
	Kind   string `json:"kind" validate:"omitempty,oneof=mcq code text"`
	Index  *int   `json:"index" validate:"omitempty,gte=0"`
}

func TestStruct(t *testing.T) {
	neg := -1

	tests := []struct {
		name       string
		body       likeBody
		wantFields []string
	}{
		{"valid", likeBody{UserID: "u", ReelID: "r"}, nil},
		{"missing both", likeBody{}, []string{"userId", "reelId"}},
		{"bad oneof", likeBody{UserID: "u", ReelID: "r", Kind: "essay"}, []string{"kind"}},
		{"negative index", likeBody{UserID: "u", ReelID: "r", Index: &neg}, []string{"index"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.body)
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %T (%v)", err, err)
			}
			if len(reqErr.Fields) != len(tt.wantFields) {
				t.Fatalf("expected %d field errors, got %d: %v", len(tt.wantFields), len(reqErr.Fields), reqErr)
			}
			for i, f := range tt.wantFields {
				if reqErr.Fields[i].Field != f {
					t.Errorf("field %d = %q, want %q", i, reqErr.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestRequestError_Message(t *testing.T) {
	err := Struct(likeBody{})
	want := "userId is required; reelId is required"
	if err == nil || err.Error() != want {
		t.Errorf("Error() = %v, want %q", err, want)
	}
}
