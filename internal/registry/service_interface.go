package registry

// Service is the lifecycle every long-running component implements.
// Start must not block; Stop must wait for the component's goroutines to exit.
type Service interface {
	Start() error
	Stop() error
}
