package ir

import "fmt"

// Package is the top-level IR container: channels and processes produced by
// a validated front end. Exactly one declared channel per id; channels are
// looked up by id and by name.
type Package struct {
	Name     string
	Channels []*Channel
	Procs    []*Proc

	// Top names the network entry process.
	Top string

	chansByID   map[int64]*Channel
	chansByName map[string]*Channel
}

// NewPackage creates an empty package.
func NewPackage(name string) *Package {
	return &Package{
		Name:        name,
		chansByID:   make(map[int64]*Channel),
		chansByName: make(map[string]*Channel),
	}
}

// AddChannel registers a channel. IDs and names must be unique.
func (p *Package) AddChannel(c *Channel) error {
	if _, ok := p.chansByID[c.ID]; ok {
		return fmt.Errorf("duplicate channel id %d", c.ID)
	}
	if _, ok := p.chansByName[c.Name]; ok {
		return fmt.Errorf("duplicate channel name %q", c.Name)
	}
	p.Channels = append(p.Channels, c)
	p.chansByID[c.ID] = c
	p.chansByName[c.Name] = c
	return nil
}

// Channel looks up a channel by id.
func (p *Package) Channel(id int64) (*Channel, error) {
	c, ok := p.chansByID[id]
	if !ok {
		return nil, fmt.Errorf("no channel with id %d", id)
	}
	return c, nil
}

// ChannelByName looks up a channel by name.
func (p *Package) ChannelByName(name string) (*Channel, error) {
	c, ok := p.chansByName[name]
	if !ok {
		return nil, fmt.Errorf("no channel named %q", name)
	}
	return c, nil
}

// NextChannelID returns an id one past the largest in use. Legalization uses
// it to mint internal channels.
func (p *Package) NextChannelID() int64 {
	var max int64 = -1
	for _, c := range p.Channels {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

// AddProc appends a process. Declaration order is preserved; it is the
// deterministic tie-break everywhere operations are enumerated.
func (p *Package) AddProc(pr *Proc) error {
	for _, existing := range p.Procs {
		if existing.Name == pr.Name {
			return fmt.Errorf("duplicate proc name %q", pr.Name)
		}
	}
	p.Procs = append(p.Procs, pr)
	return nil
}

// Proc finds a process by name.
func (p *Package) Proc(name string) (*Proc, error) {
	for _, pr := range p.Procs {
		if pr.Name == name {
			return pr, nil
		}
	}
	return nil, fmt.Errorf("no proc named %q", name)
}

// Validate checks every graph process. The first failure aborts; a graph
// error invalidates the whole package.
func (p *Package) Validate() error {
	if p.Top != "" {
		if _, err := p.Proc(p.Top); err != nil {
			return fmt.Errorf("top proc: %w", err)
		}
	}
	for _, pr := range p.Procs {
		if err := pr.Validate(); err != nil {
			return err
		}
	}
	for _, pr := range p.Procs {
		if pr.IsAdapter() {
			continue
		}
		for i := range pr.Nodes {
			n := &pr.Nodes[i]
			if n.IsChannelOp() {
				if _, err := p.Channel(n.ChannelID); err != nil {
					return &GraphError{Proc: pr.Name, Node: n.Name, Message: err.Error()}
				}
			}
		}
	}
	return nil
}
