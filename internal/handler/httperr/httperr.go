package httperr

// Response is the envelope the recovery middleware writes when a
// request dies outside a handler.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}
