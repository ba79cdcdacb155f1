package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Color overrides, applied after terminal detection.
const (
	EnvFG     = "MEDIA_SORTER_FG"
	EnvMuted  = "MEDIA_SORTER_MUTED"
	EnvAccent = "MEDIA_SORTER_ACCENT"
	EnvError  = "MEDIA_SORTER_ERROR"
)

// Detect picks the palette of the user's terminal: the Omarchy theme, then
// Alacritty, then Foot, then the default. Environment overrides win.
func Detect() Palette {
	home, err := os.UserHomeDir()
	if err != nil {
		return applyEnv(DefaultPalette(), os.Getenv)
	}
	return applyEnv(detectIn(home), os.Getenv)
}

func detectIn(home string) Palette {
	alacritty := []string{
		filepath.Join(home, ".config", "omarchy", "current", "theme", "alacritty.toml"),
		filepath.Join(home, ".config", "alacritty", "alacritty.toml"),
		filepath.Join(home, ".alacritty.toml"),
	}
	for _, path := range alacritty {
		if p, ok := parseAlacritty(path); ok {
			return p
		}
	}
	if p, ok := parseFoot(filepath.Join(home, ".config", "foot", "foot.ini")); ok {
		return p
	}
	return DefaultPalette()
}

type alacrittyConfig struct {
	Colors struct {
		Primary struct {
			Foreground string `toml:"foreground"`
		} `toml:"primary"`
		Normal struct {
			Red   string `toml:"red"`
			Green string `toml:"green"`
		} `toml:"normal"`
	} `toml:"colors"`
}

func parseAlacritty(path string) (Palette, bool) {
	var cfg alacrittyConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Palette{}, false
	}
	if cfg.Colors.Primary.Foreground == "" {
		return Palette{}, false
	}
	return derive(cfg.Colors.Primary.Foreground, cfg.Colors.Normal.Green, cfg.Colors.Normal.Red), true
}

func parseFoot(path string) (Palette, bool) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Palette{}, false
	}
	colors := cfg.Section("colors")
	fg := colors.Key("foreground").String()
	if fg == "" {
		return Palette{}, false
	}
	// foot numbers the regular colors: regular1 is red, regular2 green.
	return derive(fg, colors.Key("regular2").String(), colors.Key("regular1").String()), true
}

func derive(fg, accent, errColor string) Palette {
	p := DefaultPalette()
	p.FG = normalizeHex(fg)
	p.Muted = dimColor(p.FG, 0.5)
	if accent != "" {
		p.Accent = normalizeHex(accent)
	}
	if errColor != "" {
		p.Error = normalizeHex(errColor)
	}
	return p
}

func applyEnv(p Palette, getenv func(string) string) Palette {
	for key, dst := range map[string]*string{
		EnvFG:     &p.FG,
		EnvMuted:  &p.Muted,
		EnvAccent: &p.Accent,
		EnvError:  &p.Error,
	} {
		if v := getenv(key); v != "" {
			*dst = normalizeHex(v)
		}
	}
	return p
}

// normalizeHex turns 0xRRGGBB, RRGGBB and #RGB into #RRGGBB. Anything else is
// returned unchanged.
func normalizeHex(color string) string {
	color = strings.TrimSpace(color)
	if strings.HasPrefix(color, "0x") || strings.HasPrefix(color, "0X") {
		color = color[2:]
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if len(color) == 4 {
		r, g, b := color[1:2], color[2:3], color[3:4]
		color = "#" + r + r + g + g + b + b
	}
	if hexColor.MatchString(color) {
		return strings.ToLower(color)
	}
	return color
}

// dimColor scales every channel of a #RRGGBB color by factor.
func dimColor(hex string, factor float64) string {
	if !hexColor.MatchString(hex) {
		return hex
	}
	v, _ := strconv.ParseUint(hex[1:], 16, 32)
	r := float64(v>>16&0xff) * factor
	g := float64(v>>8&0xff) * factor
	b := float64(v&0xff) * factor
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}
