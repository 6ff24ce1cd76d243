package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocPathsMatchRoutes(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/", doc.BasePath)
	for _, path := range []string{"/", "/health", "/uploads/{fileName}", "/api/auth/register", "/api/documents/upload", "/api/documents/{id}/print"} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.NotContains(t, doc.Paths, "/api/uploads/{fileName}")
	assert.NotContains(t, doc.Paths, "/api/health")
}
