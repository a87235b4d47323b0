package credentials

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generating child-friendly usernames
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "cool", "swift", "clever", "jolly",
	"mighty", "super", "star", "wild", "funny", "lucky", "magic", "bouncy",
	"cheerful", "daring", "eager", "flying", "gentle", "hyper", "jazzy", "kindly",
	"lively", "merry", "noble", "perky", "quick", "royal", "snappy", "turbo",
	"zippy", "awesome", "bold", "cosmic", "dynamic", "epic", "fantastic", "groovy",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "bear",
	"fox", "hawk", "shark", "phoenix", "unicorn", "rocket", "ninja", "wizard",
	"knight", "pirate", "robot", "astronaut", "hero", "champion", "explorer", "ranger",
	"warrior", "captain", "genius", "comet", "thunder", "lightning", "tornado", "blizzard",
	"flame", "storm", "shadow", "spirit", "ghost", "monster", "alien", "racer",
}

const (
	pinDigits        = "0123456789"
	pinLength        = 4
	familyCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	familyCodeLength = 6
)

// GenerateChildUsername generates a random username in the format "adjective-noun"
func GenerateChildUsername() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return adjective + "-" + noun, nil
}

// GeneratePIN generates a random 4-digit PIN for the student login
func GeneratePIN() (string, error) {
	return randomString(pinDigits, pinLength)
}

// GenerateFamilyCode generates the short code other parents and children use
// to find a family. Easily confused characters (0/O, 1/I) are left out.
func GenerateFamilyCode() (string, error) {
	return randomString(familyCodeChars, familyCodeLength)
}

func randomString(chars string, length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		out[i] = chars[num.Int64()]
	}
	return string(out), nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
