package sim

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	components    []Component
	compNameIndex map[string]int
	ports         []Port
	portNameIndex map[string]int
}

// NewSimulation creates a new simulation.
func NewSimulation() *Simulation {
	return &Simulation{
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
	}
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c Component) {
	compName := c.Name()
	if _, ok := s.compNameIndex[compName]; ok {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	for _, p := range c.Ports() {
		s.registerPort(p)
	}
}

// registerPort registers a port with the simulation.
func (s *Simulation) registerPort(p Port) {
	portName := p.Name()
	if _, ok := s.portNameIndex[portName]; ok {
		panic("port " + portName + " already registered")
	}

	s.ports = append(s.ports, p)
	s.portNameIndex[portName] = len(s.ports) - 1
}

// Components returns all the components registered with the simulation.
func (s *Simulation) Components() []Component {
	return s.components
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) Component {
	index, ok := s.compNameIndex[name]
	if !ok {
		panic("component " + name + " not registered")
	}

	return s.components[index]
}

// GetPortByName returns the port with the given name.
func (s *Simulation) GetPortByName(name string) Port {
	index, ok := s.portNameIndex[name]
	if !ok {
		panic("port " + name + " not registered")
	}

	return s.ports[index]
}
