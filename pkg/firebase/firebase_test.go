package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_DisabledWithoutCredentials(t *testing.T) {
	app, err := Init(context.Background(), "", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestInit_MissingCredentialsFile(t *testing.T) {
	_, err := Init(context.Background(), filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	assert.Error(t, err)
}
