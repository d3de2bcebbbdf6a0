package util

import (
	"fmt"
	"math/rand"
)

// GenerateRandomNumber generates a random number between min and max (inclusive)
func GenerateRandomNumber(min, max int) int {
	return min + rand.Intn(max-min+1)
}

// GenerateRandomPhone generates a random 11-digit mainland mobile number,
// used by the seed command
func GenerateRandomPhone() string {
	return fmt.Sprintf("1%d%08d", GenerateRandomNumber(30, 99), rand.Intn(100000000))
}
