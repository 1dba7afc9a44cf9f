package ringrun

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Window      WindowConfig      `json:"window"`
	Camera      CameraConfig      `json:"camera"`
	Course      CourseConfig      `json:"course"`
	Indicators  IndicatorConfig   `json:"indicators"`
	Leaderboard LeaderboardConfig `json:"leaderboard"`
	Log         LogConfig         `json:"log"`
	Username    string            `json:"username"`
	TargetFPS   int               `json:"target_fps"`
}

type WindowConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// Pixels per terminal cell.
	CellWidth  int `json:"cell_width"`
	CellHeight int `json:"cell_height"`
}

type CameraConfig struct {
	StartPosition [3]float64 `json:"start_position"`
	FovDeg        float64    `json:"fov_deg"`
	Near          float64    `json:"near"`
	Far           float64    `json:"far"`
	MoveSpeed     float64    `json:"move_speed"`
	LookSpeed     float64    `json:"look_speed"`
	LookLerp      float64    `json:"look_lerp"`
	// Zero moves the camera directly instead of integrating a velocity.
	Drag  float64 `json:"drag"`
	Boost float64 `json:"boost"`
}

type CourseConfig struct {
	Seed       uint64  `json:"seed"`
	RingCount  int     `json:"ring_count"`
	Spacing    float64 `json:"spacing"`
	Spread     float64 `json:"spread"`
	RingRadius float64 `json:"ring_radius"`
	PassRadius float64 `json:"pass_radius"`
}

type IndicatorConfig struct {
	ArrowSize            float64 `json:"arrow_size"`
	Margin               float64 `json:"margin"`
	Alpha                float64 `json:"alpha"`
	Lookahead            int     `json:"lookahead"`
	FrameRateIndependent bool    `json:"frame_rate_independent"`
	ReferenceFPS         float64 `json:"reference_fps"`
	Color                string  `json:"color"`
	NextColor            string  `json:"next_color"`
}

type LeaderboardConfig struct {
	// Empty keeps scores in memory only.
	DBPath         string `json:"db_path"`
	PerCourseLimit int    `json:"per_course_limit"`
	GlobalLimit    int    `json:"global_limit"`
}

type LogConfig struct {
	Debug bool   `json:"debug"`
	File  string `json:"file"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 800, Height: 600, CellWidth: 8, CellHeight: 16},
		Camera: CameraConfig{
			StartPosition: [3]float64{0, 1, 5},
			FovDeg:        75,
			Near:          0.1,
			Far:           500,
			MoveSpeed:     10,
			LookSpeed:     1.5,
			LookLerp:      0.35,
			Drag:          8,
			Boost:         2,
		},
		Course: CourseConfig{
			Seed:       1,
			RingCount:  10,
			Spacing:    15,
			Spread:     6,
			RingRadius: 2,
			PassRadius: 2,
		},
		Indicators: IndicatorConfig{
			ArrowSize:    60,
			Margin:       20,
			Alpha:        0.25,
			Lookahead:    1,
			ReferenceFPS: 60,
			Color:        "#22d3ee",
			NextColor:    "#64748b",
		},
		Leaderboard: LeaderboardConfig{PerCourseLimit: 10, GlobalLimit: 20},
		Username:    "pilot",
		TargetFPS:   60,
	}
}

const maxConfigSize = 1 << 20

// LoadConfig reads a JSON file over DefaultConfig, so omitted fields keep
// their defaults. Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	check(c.Window.CellWidth > 0 && c.Window.CellHeight > 0, "cell size must be positive, got %dx%d", c.Window.CellWidth, c.Window.CellHeight)

	check(c.Camera.FovDeg > 0 && c.Camera.FovDeg < 180, "camera.fov_deg must be in (0, 180), got %v", c.Camera.FovDeg)
	check(c.Camera.Near > 0 && c.Camera.Far > c.Camera.Near, "camera clip planes must satisfy 0 < near < far, got %v, %v", c.Camera.Near, c.Camera.Far)
	check(c.Camera.MoveSpeed >= 0, "camera.move_speed must be non-negative, got %v", c.Camera.MoveSpeed)
	check(c.Camera.LookSpeed >= 0, "camera.look_speed must be non-negative, got %v", c.Camera.LookSpeed)
	check(c.Camera.LookLerp > 0 && c.Camera.LookLerp <= 1, "camera.look_lerp must be in (0, 1], got %v", c.Camera.LookLerp)
	check(c.Camera.Drag >= 0, "camera.drag must be non-negative, got %v", c.Camera.Drag)
	check(c.Camera.Boost >= 1, "camera.boost must be at least 1, got %v", c.Camera.Boost)
	for i, v := range c.Camera.StartPosition {
		check(!math.IsNaN(v) && !math.IsInf(v, 0), "camera.start_position[%d] must be finite", i)
	}

	check(c.Course.RingCount > 0, "course.ring_count must be positive, got %d", c.Course.RingCount)
	check(c.Course.Spacing > 0, "course.spacing must be positive, got %v", c.Course.Spacing)
	check(c.Course.Spread >= 0, "course.spread must be non-negative, got %v", c.Course.Spread)
	check(c.Course.RingRadius > 0, "course.ring_radius must be positive, got %v", c.Course.RingRadius)
	check(c.Course.PassRadius > 0, "course.pass_radius must be positive, got %v", c.Course.PassRadius)

	check(c.Indicators.ArrowSize >= 0 && c.Indicators.Margin >= 0, "indicator arrow_size and margin must be non-negative")
	check(c.Indicators.Alpha >= 0 && c.Indicators.Alpha <= 1, "indicators.alpha must be in [0, 1], got %v", c.Indicators.Alpha)
	check(c.Indicators.Lookahead > 0, "indicators.lookahead must be positive, got %d", c.Indicators.Lookahead)
	check(!c.Indicators.FrameRateIndependent || c.Indicators.ReferenceFPS > 0, "indicators.reference_fps must be positive when frame_rate_independent is set")

	check(c.Leaderboard.PerCourseLimit > 0 && c.Leaderboard.GlobalLimit > 0, "leaderboard limits must be positive")
	check(c.TargetFPS >= 0, "target_fps must be non-negative, got %d", c.TargetFPS)
	check(utf8.RuneCountInString(c.Username) <= 32, "username must be at most 32 characters")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
