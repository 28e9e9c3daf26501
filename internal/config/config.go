package config

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"gopkg.in/yaml.v3"
)

const (
	BeltColumnCount = 4

	secretPrefix = "dpapi:"
)

type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"logLevel"`
	LogDir   string `yaml:"logDir"`
	Name     string `yaml:"name"`

	Monitor int    `yaml:"monitor"`
	Window  Window `yaml:"window"`

	Belt        Belt        `yaml:"belt"`
	Colors      Colors      `yaml:"colors"`
	KeyBindings KeyBindings `yaml:"keyBindings"`
	Inventory   Inventory   `yaml:"inventory"`
	Capacities  Capacities  `yaml:"capacities"`

	Discord  Discord  `yaml:"discord"`
	Telegram Telegram `yaml:"telegram"`
	Server   Server   `yaml:"server"`
	Journal  Journal  `yaml:"journal"`
}

// Window is the game client area inside the captured monitor.
type Window struct {
	OffsetX int `yaml:"offsetX"`
	OffsetY int `yaml:"offsetY"`
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
}

type Belt struct {
	Rows         int         `yaml:"rows"`
	Columns      BeltColumns `yaml:"columns"`
	Slot         Slot        `yaml:"slot"`
	ScreenHeight int         `yaml:"screenHeight"`
}

// BeltColumns is how many of the belt columns are reserved for each potion kind.
type BeltColumns struct {
	Rejuv  int `yaml:"rejuv"`
	Health int `yaml:"health"`
	Mana   int `yaml:"mana"`
}

// Quota returns a fresh rowsLeft counter per potion kind.
func (bc BeltColumns) Quota() map[consumable.Kind]int {
	return map[consumable.Kind]int{
		consumable.KindRejuv:  bc.Rejuv,
		consumable.KindHealth: bc.Health,
		consumable.KindMana:   bc.Mana,
	}
}

// Slot is the geometry of the bottom-left belt slot, in screen coordinates. FirstX/FirstY is
// the slot center and Next the distance between two columns.
type Slot struct {
	FirstX int `yaml:"firstX"`
	FirstY int `yaml:"firstY"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Next   int `yaml:"next"`
}

// Rect returns the slot region for a column and row. Rows grow upwards from the bottom row 0.
func (s Slot) Rect(column, row int) image.Rectangle {
	x := s.FirstX - s.Width/2 + column*s.Next
	y := s.FirstY - s.Height/2 - int(float64(row*s.Next)*0.92)

	return image.Rect(x, y, x+s.Width, y+s.Height)
}

// HSV is an OpenCV style 8-bit HSV triplet, hue in [0,179].
type HSV [3]int

type ColorRange struct {
	Lower HSV `yaml:"lower"`
	Upper HSV `yaml:"upper"`
}

type Colors struct {
	RejuvPotion   ColorRange `yaml:"rejuvPotion"`
	HealthPotion0 ColorRange `yaml:"healthPotion0"`
	HealthPotion1 ColorRange `yaml:"healthPotion1"`
	ManaPotion    ColorRange `yaml:"manaPotion"`
}

type KeyBindings struct {
	ShowBelt  string                  `yaml:"showBelt"`
	Inventory string                  `yaml:"inventory"`
	Belt      [BeltColumnCount]string `yaml:"belt"`
}

type Inventory struct {
	// ROI is x, y, width, height in screen coordinates.
	ROI               [4]int  `yaml:"roi"`
	TemplatesDir      string  `yaml:"templatesDir"`
	TemplateThreshold float64 `yaml:"templateThreshold"`
	OCRLanguage       string  `yaml:"ocrLanguage"`
}

func (i Inventory) Rect() image.Rectangle {
	return image.Rect(i.ROI[0], i.ROI[1], i.ROI[0]+i.ROI[2], i.ROI[1]+i.ROI[3])
}

type Capacities struct {
	TownPortal int `yaml:"tp"`
	Identify   int `yaml:"id"`
	Key        int `yaml:"key"`
}

func (c Capacities) Of(kind consumable.Kind) (int, bool) {
	switch kind {
	case consumable.KindTownPortal:
		return c.TownPortal, true
	case consumable.KindIdentify:
		return c.Identify, true
	case consumable.KindKey:
		return c.Key, true
	}

	return 0, false
}

type Discord struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channelId"`
}

type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chatId"`
}

type Server struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type Journal struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the settings for a 1280x720 client with a 4 row belt.
func Default() Config {
	return Config{
		LogLevel: "info",
		LogDir:   "logs",
		Name:     "default",
		Window:   Window{Width: 1280, Height: 720},
		Belt: Belt{
			Rows:         4,
			Columns:      BeltColumns{Rejuv: 1, Health: 2, Mana: 1},
			Slot:         Slot{FirstX: 838, FirstY: 683, Width: 28, Height: 28, Next: 31},
			ScreenHeight: 720,
		},
		Colors: Colors{
			RejuvPotion:   ColorRange{Lower: HSV{140, 80, 80}, Upper: HSV{165, 255, 255}},
			HealthPotion0: ColorRange{Lower: HSV{0, 100, 80}, Upper: HSV{10, 255, 255}},
			HealthPotion1: ColorRange{Lower: HSV{11, 100, 80}, Upper: HSV{25, 255, 255}},
			ManaPotion:    ColorRange{Lower: HSV{100, 100, 80}, Upper: HSV{130, 255, 255}},
		},
		KeyBindings: KeyBindings{
			ShowBelt:  "`",
			Inventory: "i",
			Belt:      [BeltColumnCount]string{"1", "2", "3", "4"},
		},
		Inventory: Inventory{
			ROI:               [4]int{665, 330, 620, 250},
			TemplatesDir:      "assets/templates",
			TemplateThreshold: 0.9,
			OCRLanguage:       "engd2r_inv_th_fast",
		},
		Capacities: Capacities{TownPortal: 20, Identify: 20, Key: 12},
		Server:     Server{Listen: "127.0.0.1:8087"},
		Journal:    Journal{Path: "data/journal.db"},
	}
}

// Load reads a yaml file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Belt.Rows < 1 {
		errs = append(errs, fmt.Errorf("belt.rows must be at least 1, got %d", c.Belt.Rows))
	}
	bc := c.Belt.Columns
	if bc.Rejuv < 0 || bc.Health < 0 || bc.Mana < 0 {
		errs = append(errs, errors.New("belt.columns values can not be negative"))
	}
	if total := bc.Rejuv + bc.Health + bc.Mana; total > BeltColumnCount {
		errs = append(errs, fmt.Errorf("belt.columns reserve %d columns, belt only has %d", total, BeltColumnCount))
	}
	if c.Belt.Slot.Width <= 0 || c.Belt.Slot.Height <= 0 || c.Belt.Slot.Next <= 0 {
		errs = append(errs, errors.New("belt.slot width, height and next must be positive"))
	}
	if c.KeyBindings.ShowBelt == "" {
		errs = append(errs, errors.New("keyBindings.showBelt is required"))
	}
	for i, b := range c.KeyBindings.Belt {
		if b == "" {
			errs = append(errs, fmt.Errorf("keyBindings.belt[%d] is required", i))
		}
	}
	if c.Inventory.TemplateThreshold <= 0 || c.Inventory.TemplateThreshold > 1 {
		errs = append(errs, fmt.Errorf("inventory.templateThreshold must be in (0,1], got %.2f", c.Inventory.TemplateThreshold))
	}
	if c.Discord.Enabled && (c.Discord.Token == "" || c.Discord.ChannelID == "") {
		errs = append(errs, errors.New("discord requires token and channelId"))
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("telegram requires token and chatId"))
	}

	return errors.Join(errs...)
}
