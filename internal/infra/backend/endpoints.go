package backend

// Backend routes consumed by the client.
const (
	EndpointGetPlans    = "/api/Subscription/GetSubscriptionPlans"
	EndpointGetMovies   = "/api/Content/GetMovies"
	EndpointInitiateSTK = "/api/Payment/InitiateMpesaSTK"
	EndpointSTKStatus   = "/api/Payment/CheckMpesaStatus"
)

// LoginPath is where the client sends the user when the session is gone.
const LoginPath = "/login"
