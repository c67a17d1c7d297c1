package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/thorax", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "thorax"), got)
	})
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			flag:    "",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
		{
			name:    "platform default when both empty",
			flag:    "",
			envVal:  "",
			wantSub: "thorax",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveDBPath(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		configVal string
		envVal    string
		wantSub   string
	}{
		{
			name:      "flag wins over everything",
			flag:      "/explicit/thoracic.db",
			configVal: "/config/thoracic.db",
			envVal:    "/env/thoracic.db",
			wantSub:   "/explicit/thoracic.db",
		},
		{
			name:      "config value wins over env",
			configVal: "/config/thoracic.db",
			envVal:    "/env/thoracic.db",
			wantSub:   "/config/thoracic.db",
		},
		{
			name:    "env wins over default",
			envVal:  "/env/thoracic.db",
			wantSub: "/env/thoracic.db",
		},
		{
			name:    "CWD default when nothing set",
			wantSub: DefaultDBName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDBPath, tt.envVal)
			got, err := ResolveDBPath(tt.flag, tt.configVal)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveBackupDir(t *testing.T) {
	t.Setenv(EnvBackupDir, "")

	got, err := ResolveBackupDir("", "", "/data/thoracic.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", DefaultBackupDir), got)

	got, err = ResolveBackupDir("/explicit/backups", "", "/data/thoracic.db")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/backups", got)
}
