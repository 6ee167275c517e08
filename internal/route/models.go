// Package route defines the multimodal journey data model shared by the
// synthesis, adjustment and scoring stages.
package route

import (
	"errors"
	"time"

	"github.com/citynav/citynav/internal/city"
	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/journey"
	"github.com/citynav/citynav/internal/mode"
)

// Sentinel errors for request validation.
var (
	// ErrInvalidSource indicates the source coordinates are missing or out of range.
	ErrInvalidSource = errors.New("invalid source coordinates")
	// ErrInvalidDestination indicates the destination coordinates are missing or out of range.
	ErrInvalidDestination = errors.New("invalid destination coordinates")
	// ErrInvalidPreference indicates a preference field holds an unknown value.
	ErrInvalidPreference = errors.New("invalid preference")
)

// CarbonLevel is a qualitative emissions label.
type CarbonLevel string

const (
	CarbonLow    CarbonLevel = "low"
	CarbonMedium CarbonLevel = "medium"
	CarbonHigh   CarbonLevel = "high"
)

// ComfortLevel is a qualitative comfort label.
type ComfortLevel string

const (
	ComfortLow    ComfortLevel = "low"
	ComfortMedium ComfortLevel = "medium"
	ComfortHigh   ComfortLevel = "high"
)

// Type is the semantic label assigned during scoring.
type Type string

const (
	TypeUnassigned Type = ""
	TypeFastest    Type = "fastest"
	TypeCheapest   Type = "cheapest"
	TypeComfort    Type = "comfort"
	TypeBalanced   Type = "balanced"
)

// Segment is one single-mode leg of a journey.
type Segment struct {
	ID           string       `json:"id"`
	Mode         mode.Mode    `json:"mode"`
	From         geo.Location `json:"from"`
	To           geo.Location `json:"to"`
	Distance     float64      `json:"distance"` // meters
	Duration     int          `json:"duration"` // minutes
	Cost         int          `json:"cost"`
	Instruction  string       `json:"instruction"`
	RouteName    string       `json:"routeName,omitempty"`
	WaitTime     int          `json:"waitTime,omitempty"`     // minutes
	TransferTime int          `json:"transferTime,omitempty"` // minutes
	Polyline     string       `json:"polyline,omitempty"`
}

// Route is one complete journey option.
type Route struct {
	ID               string       `json:"id"`
	Segments         []Segment    `json:"segments"`
	TotalDistance    float64      `json:"totalDistance"` // meters
	TotalDuration    int          `json:"totalDuration"` // minutes
	TotalCost        int          `json:"totalCost"`
	TransferCount    int          `json:"transferCount"`
	ModesUsed        []mode.Mode  `json:"modesUsed"`
	CarbonFootprint  CarbonLevel  `json:"carbonFootprint"`
	ComfortLevel     ComfortLevel `json:"comfortLevel"`
	ReliabilityScore float64      `json:"reliabilityScore"` // 0-100
	Description      string       `json:"description"`
	Warnings         []string     `json:"warnings,omitempty"`
	Score            float64      `json:"score"`
	// ScoreModifier is the product of user-context and preference
	// multipliers; scoring applies it on top of the weighted score.
	ScoreModifier float64 `json:"scoreModifier"`
	Type          Type    `json:"type,omitempty"`
}

// Prioritize selects a scoring weight preset.
type Prioritize string

const (
	PrioritizeNone    Prioritize = "none"
	PrioritizeTime    Prioritize = "time"
	PrioritizeCost    Prioritize = "cost"
	PrioritizeComfort Prioritize = "comfort"
)

// Valid reports whether p is a known preset. The empty value means none.
func (p Prioritize) Valid() bool {
	switch p {
	case "", PrioritizeNone, PrioritizeTime, PrioritizeCost, PrioritizeComfort:
		return true
	}
	return false
}

// Preferences are the caller's routing preferences. Nil limits are unbounded.
type Preferences struct {
	Prioritize         Prioritize  `json:"prioritize,omitempty"`
	AvoidModes         []mode.Mode `json:"avoidModes,omitempty"`
	PreferModes        []mode.Mode `json:"preferModes,omitempty"`
	MaxWalkingDistance *float64    `json:"maxWalkingDistance,omitempty"` // meters
	MaxCost            *float64    `json:"maxCost,omitempty"`
	MaxTransfers       *int        `json:"maxTransfers,omitempty"`
	AccessibilityMode  bool        `json:"accessibilityMode,omitempty"`
}

// WeatherCondition is the resolved weather at trip time.
type WeatherCondition string

const (
	WeatherUnknown WeatherCondition = ""
	WeatherClear   WeatherCondition = "clear"
	WeatherCloudy  WeatherCondition = "cloudy"
	WeatherRain    WeatherCondition = "rain"
	WeatherStorm   WeatherCondition = "storm"
	WeatherHot     WeatherCondition = "hot"
	WeatherFog     WeatherCondition = "fog"
)

// Valid reports whether w is a known condition (including unknown).
func (w WeatherCondition) Valid() bool {
	switch w {
	case WeatherUnknown, WeatherClear, WeatherCloudy, WeatherRain, WeatherStorm, WeatherHot, WeatherFog:
		return true
	}
	return false
}

// Level is a three-step tier used for fitness and budget.
type Level string

const (
	LevelUnknown Level = ""
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
)

// UserContext describes the traveller.
type UserContext struct {
	AccessibilityNeeds    bool  `json:"accessibilityNeeds,omitempty"`
	HasLuggage            bool  `json:"hasLuggage,omitempty"`
	TravelingWithChildren bool  `json:"travelingWithChildren,omitempty"`
	FitnessLevel          Level `json:"fitnessLevel,omitempty"`
	Budget                Level `json:"budget,omitempty"`
}

// TripContext carries the resolved trip-time context.
type TripContext struct {
	// TimeOfDay is the departure time; nil means now.
	TimeOfDay *time.Time `json:"timeOfDay,omitempty"`
	// IsWeekend overrides the weekend flag derived from TimeOfDay.
	IsWeekend        *bool            `json:"isWeekend,omitempty"`
	WeatherCondition WeatherCondition `json:"weatherCondition,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"` // °C
	User             *UserContext     `json:"user,omitempty"`
}

// Request is a route calculation request.
type Request struct {
	Source      geo.Location `json:"source"`
	Destination geo.Location `json:"destination"`
	Preferences Preferences  `json:"preferences"`
	Context     TripContext  `json:"context"`
}

// TopPicks holds the route IDs of the best route per category.
type TopPicks struct {
	Fastest     string `json:"fastest"`
	Cheapest    string `json:"cheapest"`
	Recommended string `json:"recommended"`
	Comfort     string `json:"comfort"`
	Eco         string `json:"eco"`
}

// Response is the engine's output contract.
type Response struct {
	Request           Request      `json:"request"`
	Routes            []Route      `json:"routes"`
	Top               *TopPicks    `json:"top,omitempty"`
	City              city.ID      `json:"city"`
	Band              journey.Band `json:"band"`
	CalculatedAt      time.Time    `json:"calculatedAt"`
	ComputationTimeMs int64        `json:"computationTimeMs"`
	Warnings          []string     `json:"warnings,omitempty"`
	Errors            []string     `json:"errors,omitempty"`
}
