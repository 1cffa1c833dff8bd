package rbac

import (
	"testing"

	"go-timetrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_PolicyMatrix(t *testing.T) {
	svc, err := NewService()
	require.NoError(t, err)

	tests := []struct {
		role     string
		resource string
		action   string
		allowed  bool
	}{
		{"employee", "session", "track", true},
		{"employee", "session", "read", true},
		{"employee", "session", "read_all", false},
		{"employee", "correction", "create", true},
		{"employee", "correction", "read", true},
		{"employee", "correction", "read_all", false},
		{"employee", "correction", "review", false},

		// admin inherits the employee permissions.
		{"admin", "session", "track", true},
		{"admin", "session", "read_all", true},
		{"admin", "correction", "read_all", true},
		{"admin", "correction", "review", true},

		// super_admin inherits through admin.
		{"super_admin", "session", "read_all", true},
		{"super_admin", "correction", "review", true},
		{"super_admin", "correction", "create", true},

		{"intern", "session", "track", false},
		{"", "session", "read", false},
	}

	for _, tc := range tests {
		t.Run(tc.role+"_"+tc.resource+"_"+tc.action, func(t *testing.T) {
			allowed, err := svc.Enforce(domain.EnforceRequest{
				Role:     tc.role,
				Resource: tc.resource,
				Action:   tc.action,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}
