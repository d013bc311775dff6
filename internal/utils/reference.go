package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReference generates a unique reference for sales recorded without
// a provider-supplied idempotency key
func GenerateReference(prefix string) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, 8)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}

	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s_%s_%s", prefix, timestamp, string(result))
}
