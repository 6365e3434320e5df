// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/financeflow/internal/formats"
	"github.com/pdiddy/financeflow/pkg/types"
)

// fakeRuntime implements container.Runtime for testing.
type fakeRuntime struct {
	imageErr error
	runOut   string
	runErr   error
	gotImage string
	gotInput string
}

func (f *fakeRuntime) Name() string                              { return "fake" }
func (f *fakeRuntime) Available(context.Context) bool            { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }

func (f *fakeRuntime) Run(_ context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	f.gotImage = image
	data, _ := io.ReadAll(stdin)
	f.gotInput = string(data)
	if f.runErr != nil {
		return f.runErr
	}
	_, err := io.WriteString(stdout, f.runOut)
	return err
}

func TestNewMarkitdownConverter(t *testing.T) {
	_, err := NewMarkitdownConverter(context.Background(), &fakeRuntime{imageErr: errors.New("no such image")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markitdown image not available in fake")

	m, err := NewMarkitdownConverter(context.Background(), &fakeRuntime{})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestMarkitdownConverter_Accepts(t *testing.T) {
	m := &MarkitdownConverter{runtime: &fakeRuntime{}}
	text, _ := formats.ByExtension("txt")
	pdf, _ := formats.ByExtension("pdf")

	assert.True(t, m.Accepts("pdf", text))
	assert.True(t, m.Accepts("docx", text))
	assert.False(t, m.Accepts("docx", pdf))
	assert.False(t, m.Accepts("txt", pdf))
	assert.False(t, m.Accepts("csv", text))
}

func TestMarkitdownConverter_Convert(t *testing.T) {
	text, _ := formats.ByExtension("txt")
	doc := types.NewDocument("statement.pdf", []byte("%PDF-1.7 body"))

	tests := []struct {
		name    string
		rt      *fakeRuntime
		want    string
		wantErr string
	}{
		{name: "pipes document through image", rt: &fakeRuntime{runOut: "# Statement"}, want: "# Statement"},
		{name: "container failure", rt: &fakeRuntime{runErr: errors.New("exit status 2")}, wantErr: "exit status 2"},
		{name: "empty output", rt: &fakeRuntime{}, wantErr: "empty output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MarkitdownConverter{runtime: tt.rt}
			out, err := m.Convert(context.Background(), doc, text)
			assert.Equal(t, imageMarkitdown, tt.rt.gotImage)
			assert.Equal(t, "%PDF-1.7 body", tt.rt.gotInput)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}
