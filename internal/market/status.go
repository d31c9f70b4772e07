package market

type Status string

const (
	StatusRequested      Status = "REQUESTED"
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusCompleted      Status = "COMPLETED"
	StatusExpired        Status = "EXPIRED"
)

var validNext = map[Status]map[Status]bool{
	StatusRequested:      {StatusPaymentPending: true},
	StatusPaymentPending: {StatusCompleted: true, StatusExpired: true},
	StatusCompleted:      {},
	StatusExpired:        {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
