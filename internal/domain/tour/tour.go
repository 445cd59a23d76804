package tour

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

const DefaultRatingsAverage = 4.5

var ErrDiscountNotBelowPrice = errors.New("the discounted price should be less than the actual price")

type Tour struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Slug            string             `bson:"slug" json:"slug"`
	Duration        int                `bson:"duration" json:"duration"`
	MaxGroupSize    int                `bson:"maxGroupSize" json:"maxGroupSize"`
	Difficulty      Difficulty         `bson:"difficulty" json:"difficulty"`
	RatingsAverage  float64            `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int                `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Price           float64            `bson:"price" json:"price"`
	PriceDiscount   float64            `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string             `bson:"summary" json:"summary"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string             `bson:"imageCover" json:"imageCover"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	StartDates      []time.Time        `bson:"startDates,omitempty" json:"startDates,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"-"` // hidden from default serialization
	SecretTour      bool               `bson:"secretTour" json:"-"`
}

type CreateTourRequest struct {
	Name            string      `json:"name" binding:"required,min=10,max=50"`
	Duration        int         `json:"duration" binding:"required,min=1"`
	MaxGroupSize    int         `json:"maxGroupSize" binding:"required,min=1"`
	Difficulty      Difficulty  `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	RatingsAverage  float64     `json:"ratingsAverage" binding:"omitempty,gte=1,lte=5"`
	Price           float64     `json:"price" binding:"required,gt=0"`
	PriceDiscount   float64     `json:"priceDiscount" binding:"omitempty,gt=0"`
	Summary         string      `json:"summary" binding:"required"`
	Description     string      `json:"description" binding:"omitempty"`
	ImageCover      string      `json:"imageCover" binding:"required"`
	Images          []string    `json:"images" binding:"omitempty"`
	StartDates      []time.Time `json:"startDates" binding:"omitempty"`
	SecretTour      bool        `json:"secretTour"`
}

// Validate holds the one cross-field rule the binding tags cannot express.
// Checked at creation only, matching the persisted contract.
func (r CreateTourRequest) Validate() error {
	if r.PriceDiscount > 0 && r.PriceDiscount >= r.Price {
		return ErrDiscountNotBelowPrice
	}

	return nil
}

// New builds a persistable tour from a validated create request, filling the
// derived and defaulted fields.
func New(r CreateTourRequest) Tour {
	avg := r.RatingsAverage

	if avg == 0 {
		avg = DefaultRatingsAverage
	}

	return Tour{
		Name:           strings.TrimSpace(r.Name),
		Slug:           Slugify(r.Name),
		Duration:       r.Duration,
		MaxGroupSize:   r.MaxGroupSize,
		Difficulty:     r.Difficulty,
		RatingsAverage: avg,
		Price:          r.Price,
		PriceDiscount:  r.PriceDiscount,
		Summary:        strings.TrimSpace(r.Summary),
		Description:    strings.TrimSpace(r.Description),
		ImageCover:     r.ImageCover,
		Images:         r.Images,
		StartDates:     r.StartDates,
		CreatedAt:      time.Now().UTC(),
		SecretTour:     r.SecretTour,
	}
}

// UpdateTourRequest is a partial update: nil means "leave unchanged".
type UpdateTourRequest struct {
	Name           *string      `json:"name" binding:"omitempty,min=10,max=50"`
	Duration       *int         `json:"duration" binding:"omitempty,min=1"`
	MaxGroupSize   *int         `json:"maxGroupSize" binding:"omitempty,min=1"`
	Difficulty     *Difficulty  `json:"difficulty" binding:"omitempty,oneof=easy medium difficult"`
	RatingsAverage *float64     `json:"ratingsAverage" binding:"omitempty,gte=1,lte=5"`
	Price          *float64     `json:"price" binding:"omitempty,gt=0"`
	PriceDiscount  *float64     `json:"priceDiscount" binding:"omitempty,gt=0"`
	Summary        *string      `json:"summary" binding:"omitempty,min=1"`
	Description    *string      `json:"description" binding:"omitempty"`
	ImageCover     *string      `json:"imageCover" binding:"omitempty,min=1"`
	Images         *[]string    `json:"images" binding:"omitempty"`
	StartDates     *[]time.Time `json:"startDates" binding:"omitempty"`
	SecretTour     *bool        `json:"secretTour" binding:"omitempty"`
}

// Slugify derives the URL-safe slug from a tour name: lowercase, runs of
// anything non-alphanumeric collapse to a single hyphen.
func Slugify(name string) string {
	var b strings.Builder

	lastHyphen := true // suppress a leading hyphen

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}

		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
