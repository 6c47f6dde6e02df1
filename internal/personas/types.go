package personas

// Persona is the identity block used to parametrize a prompt.
// Values are shared by pointer and never mutated after the registry is built.
type Persona struct {
	ID        string `yaml:"-" json:"id"`
	Role      string `yaml:"role" json:"role"`
	Goal      string `yaml:"goal" json:"goal"`
	Backstory string `yaml:"backstory" json:"backstory"`
	Tone      string `yaml:"tone" json:"tone,omitempty"`
}

// Config is the decoded persona catalogue.
type Config struct {
	Personas map[string]*Persona `yaml:"personas"`
}
