package pricing

const (
	// DefaultFareRate is the fare charged per distance unit.
	DefaultFareRate = 10
	// DefaultCommissionPercent is the operator's share of each fare.
	DefaultCommissionPercent = 30
)

// Fare calculates the fare for a ride of the given graph distance.
func Fare(distance, ratePerUnit int) int {
	if distance < 0 {
		distance = 0
	}
	return distance * ratePerUnit
}

// Commission returns floor(fare * percent / 100) for the operator.
// Integer arithmetic keeps the floor exact (70 * 0.3 is not 21 in float64).
func Commission(fare, percent int) int {
	if fare <= 0 || percent <= 0 {
		return 0
	}
	return fare * percent / 100
}

// DriverShare is what remains for the driver after commission.
func DriverShare(fare, percent int) int {
	if fare <= 0 {
		return 0
	}
	return fare - Commission(fare, percent)
}
