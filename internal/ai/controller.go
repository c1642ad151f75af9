package ai

// Controller is a simulated entity driven by the tick manager.
type Controller interface {
	// Start is called once when the controller is registered.
	Start()

	// Stop is called once when the controller is unregistered.
	Stop()

	// Tick advances the controller by one simulation step.
	Tick()
}
