package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("未配置的项使用默认值", func(t *testing.T) {
		path := writeConfig(t, "jwt:\n  secret: s3cret\n")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 3, cfg.Circulation.ReservationValidityDays)
		assert.Equal(t, time.Hour, cfg.Circulation.SweepInterval)
		assert.Equal(t, 3, cfg.Database.TxMaxRetries)
		assert.Equal(t, "library.circulation", cfg.MQ.Exchange)
	})

	t.Run("环境变量覆盖配置文件", func(t *testing.T) {
		path := writeConfig(t, "jwt:\n  secret: s3cret\ndatabase:\n  password: file\n")
		t.Setenv("LIBRARY_DATABASE_PASSWORD", "from-env")
		t.Setenv("LIBRARY_CIRCULATION_RESERVATION_VALIDITY_DAYS", "5")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Database.Password)
		assert.Equal(t, 5, cfg.Circulation.ReservationValidityDays)
	})

	t.Run("校验失败", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"缺少JWT密钥", "server:\n  port: 8080\n"},
			{"端口越界", "jwt:\n  secret: s\nserver:\n  port: 70000\n"},
			{"生产环境使用默认密钥", "jwt:\n  secret: your-secret-key-change-in-production\nserver:\n  mode: release\n"},
			{"预约有效天数非法", "jwt:\n  secret: s\ncirculation:\n  reservation_validity_days: -1\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Load(writeConfig(t, tt.body))
				assert.Error(t, err)
			})
		}
	})

	t.Run("配置文件不存在", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 3306, User: "u", Password: "p", DBName: "library",
		Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t, "u:p@tcp(db:3306)/library?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())
}
