package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTemplate(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "template", FileName))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Belt.Rows)
	assert.Equal(t, 2, cfg.Belt.Columns.Quota()[consumable.KindHealth])
	assert.Equal(t, HSV{100, 100, 80}, cfg.Colors.ManaPotion.Lower)
	assert.Equal(t, [BeltColumnCount]string{"1", "2", "3", "4"}, cfg.KeyBindings.Belt)
	assert.Equal(t, 20, cfg.Capacities.TownPortal)
	assert.Equal(t, 12, cfg.Capacities.Key)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("belt:\n  rows: 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Belt.Rows)
	assert.Equal(t, Default().Belt.Slot, cfg.Belt.Slot)
	assert.Equal(t, Default().Capacities, cfg.Capacities)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Belt.Columns = BeltColumns{Rejuv: 2, Health: 2, Mana: 1}
	cfg.Belt.Rows = 0
	cfg.KeyBindings.Belt[2] = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belt.rows")
	assert.Contains(t, err.Error(), "reserve 5 columns")
	assert.Contains(t, err.Error(), "keyBindings.belt[2]")
}

func TestSlotRect(t *testing.T) {
	s := Slot{FirstX: 100, FirstY: 200, Width: 30, Height: 30, Next: 40}

	assert.Equal(t, 85, s.Rect(0, 0).Min.X)
	assert.Equal(t, 185, s.Rect(0, 0).Min.Y)
	assert.Equal(t, 165, s.Rect(2, 0).Min.X)
	// 0.92 * next per row, rows grow upwards
	assert.Equal(t, 149, s.Rect(0, 1).Min.Y)
	assert.Equal(t, 112, s.Rect(0, 2).Min.Y)
	assert.Equal(t, 30, s.Rect(3, 3).Dx())
}

func TestInstall(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "config")

	path, err := Install(filepath.Join("..", "..", "config", "template"), dst)
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("belt:\n  rows: 2\n"), 0o644))
	_, err = Install(filepath.Join("..", "..", "config", "template"), dst)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Belt.Rows)
}

func TestInstallMissingTemplate(t *testing.T) {
	_, err := Install(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	assert.Error(t, err)
}
