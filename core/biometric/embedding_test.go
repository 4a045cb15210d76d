package biometric

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/studiumhq/studium/core"
)

func TestEmbedding_Validate(t *testing.T) {
	tests := []struct {
		name    string
		emb     Embedding
		wantErr bool
	}{
		{name: "valid", emb: Embedding{0.1, 0.2, 0.3}},
		{name: "single element", emb: Embedding{0}},
		{name: "empty", emb: Embedding{}, wantErr: true},
		{name: "nil", emb: nil, wantErr: true},
		{name: "NaN", emb: Embedding{0.1, math.NaN()}, wantErr: true},
		{name: "+Inf", emb: Embedding{math.Inf(1)}, wantErr: true},
		{name: "-Inf", emb: Embedding{math.Inf(-1), 0.5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.emb.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				// must surface as a field-level validation error, not a generic failure
				var vErr *core.ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("Validate() error type = %T; want *core.ValidationError", err)
				} else if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "face_embedding" {
					t.Errorf("Validate() fields = %+v; want face_embedding", vErr.Fields)
				}
			}
		})
	}
}
