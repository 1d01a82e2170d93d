package onboarding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marshee-ai/marshee/internal/profile"
)

// Stage identifiers, in flow order. The set is closed: stage transitions are
// defined by the table below and nothing else.
const (
	StageUserName  = "user_name"
	StagePetName   = "pet_name"
	StagePetType   = "pet_type"
	StagePetGender = "pet_gender"
	StagePetBreed  = "pet_breed"
	StagePetAge    = "pet_age"
	StagePetWeight = "pet_weight"
	StageComplete  = "complete"
)

// TotalStages is the number of onboarding questions.
const TotalStages = 7

var dogBreeds = []string{
	"labrador", "german_shepherd", "golden_retriever", "indie", "pomeranian",
	"beagle", "rottweiler", "chihuahua", "pug", "rajapalayam",
}

var catBreeds = []string{
	"persian", "siamese", "maine_coon", "british_shorthair", "bengal",
	"ragdoll", "russian_blue", "scottish_fold", "bombay", "indian_billi",
}

type stage struct {
	id       string
	number   int
	kind     string // text, button or dropdown
	next     string
	question func(p profile.Profile) string
	intro    func(p profile.Profile) string
	onError  func(p profile.Profile) string
	validate func(value string) bool
	options  func(p profile.Profile) []string
	apply    func(p *profile.Profile, value string)
}

var stages = map[string]stage{
	StageUserName: {
		id:     StageUserName,
		number: 1,
		kind:   "text",
		next:   StagePetName,
		question: func(profile.Profile) string {
			return "What's your name?"
		},
		intro: func(profile.Profile) string {
			return "Hi there! I'm Marshee, your pet care assistant. Let's get to know you and your furry friend better. What's your name?"
		},
		onError: func(profile.Profile) string {
			return "Please provide a valid name. What's your name?"
		},
		validate: lengthBetween(2, 50),
		apply: func(p *profile.Profile, value string) {
			p.UserName = strings.TrimSpace(value)
		},
	},
	StagePetName: {
		id:     StagePetName,
		number: 2,
		kind:   "text",
		next:   StagePetType,
		question: func(profile.Profile) string {
			return "What's your pet's name?"
		},
		intro: func(p profile.Profile) string {
			return fmt.Sprintf("Nice to meet you, %s! Now tell me about your pet. What's your pet's name?", p.UserName)
		},
		onError: func(profile.Profile) string {
			return "Please provide a valid pet name. What's your pet's name?"
		},
		validate: lengthBetween(1, 30),
		apply: func(p *profile.Profile, value string) {
			p.PetName = strings.TrimSpace(value)
		},
	},
	StagePetType: {
		id:     StagePetType,
		number: 3,
		kind:   "button",
		next:   StagePetGender,
		question: func(profile.Profile) string {
			return "What type of pet do you have?"
		},
		intro: func(p profile.Profile) string {
			return fmt.Sprintf("%s is such a lovely name! What type of pet is %s?", petName(p), petName(p))
		},
		onError: func(profile.Profile) string {
			return "Please select a pet type. What type of pet do you have?"
		},
		validate: oneOf("dog", "cat"),
		options: func(profile.Profile) []string {
			return []string{"dog", "cat"}
		},
		apply: func(p *profile.Profile, value string) {
			p.PetType = normalize(value)
		},
	},
	StagePetGender: {
		id:     StagePetGender,
		number: 4,
		kind:   "button",
		next:   StagePetBreed,
		question: func(profile.Profile) string {
			return "What's your pet's gender?"
		},
		intro: func(p profile.Profile) string {
			return fmt.Sprintf("Great! %s is a %s. Is %s male or female?", petName(p), petType(p), petName(p))
		},
		onError: func(profile.Profile) string {
			return "Please select your pet's gender."
		},
		validate: oneOf("male", "female"),
		options: func(profile.Profile) []string {
			return []string{"male", "female"}
		},
		apply: func(p *profile.Profile, value string) {
			p.PetGender = normalize(value)
		},
	},
	StagePetBreed: {
		id:     StagePetBreed,
		number: 5,
		kind:   "dropdown",
		next:   StagePetAge,
		question: func(p profile.Profile) string {
			return fmt.Sprintf("What breed is your %s?", petType(p))
		},
		intro: func(p profile.Profile) string {
			return fmt.Sprintf("Great! %s is a %s. What breed is %s?", petName(p), petType(p), petName(p))
		},
		onError: func(profile.Profile) string {
			return "Please select a valid breed. What breed is your pet?"
		},
		validate: func(value string) bool {
			v := normalize(value)
			return contains(dogBreeds, v) || contains(catBreeds, v)
		},
		options: func(p profile.Profile) []string {
			if p.PetType == "cat" {
				return catBreeds
			}
			return dogBreeds
		},
		apply: func(p *profile.Profile, value string) {
			p.PetBreed = normalize(value)
		},
	},
	StagePetAge: {
		id:     StagePetAge,
		number: 6,
		kind:   "text",
		next:   StagePetWeight,
		question: func(profile.Profile) string {
			return "What's your pet's age (in years)?"
		},
		intro: func(p profile.Profile) string {
			return fmt.Sprintf("A %s! They're wonderful %ss. How old is %s?", p.PetBreed, petType(p), petName(p))
		},
		onError: func(profile.Profile) string {
			return "Please provide a valid age between 1 and 25 years. What's your pet's age?"
		},
		validate: numberBetween(1, 25),
		apply: func(p *profile.Profile, value string) {
			age, _ := strconv.ParseFloat(strings.TrimSpace(value), 64)
			p.PetAge = int(age)
		},
	},
	StagePetWeight: {
		id:     StagePetWeight,
		number: 7,
		kind:   "text",
		next:   StageComplete,
		question: func(profile.Profile) string {
			return "What's your pet's weight (in kg)?"
		},
		intro: func(p profile.Profile) string {
			return fmt.Sprintf("%d years old! %s sounds lovely. What's %s's weight in kilograms?", p.PetAge, petName(p), petName(p))
		},
		onError: func(profile.Profile) string {
			return "Please provide a valid weight between 0.5 and 100 kg. What's your pet's weight?"
		},
		validate: numberBetween(0.5, 100),
		apply: func(p *profile.Profile, value string) {
			p.PetWeight, _ = strconv.ParseFloat(strings.TrimSpace(value), 64)
		},
	},
}

func petName(p profile.Profile) string {
	if p.PetName == "" {
		return "Your pet"
	}
	return p.PetName
}

func petType(p profile.Profile) string {
	if p.PetType == "" {
		return "pet"
	}
	return p.PetType
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func lengthBetween(min, max int) func(string) bool {
	return func(value string) bool {
		n := len(strings.TrimSpace(value))
		return n >= min && n <= max
	}
}

func numberBetween(min, max float64) func(string) bool {
	return func(value string) bool {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return err == nil && f >= min && f <= max
	}
}

func oneOf(allowed ...string) func(string) bool {
	return func(value string) bool {
		return contains(allowed, normalize(value))
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
