package catalog

// Catalog bundles every registry the rules engine consults. Instances are
// immutable after construction; components receive a *Catalog and never
// mutate it.
type Catalog struct {
	Ranks   []RankRow
	Teams   map[string]TeamDef
	Allies  map[string]AllyDef
	Events  map[string]EventDef
	Actions map[string]ActionDef
}

// Default builds the catalog from the built-in content tables.
func Default() *Catalog {
	return &Catalog{
		Ranks:   defaultRanks(),
		Teams:   defaultTeams(),
		Allies:  defaultAllies(),
		Events:  defaultEvents(),
		Actions: defaultActions(),
	}
}

// Team returns the definition for a team type key.
func (c *Catalog) Team(key string) (TeamDef, bool) {
	def, ok := c.Teams[key]
	return def, ok
}

// Ally returns the definition for an ally slug.
func (c *Catalog) Ally(slug string) (AllyDef, bool) {
	def, ok := c.Allies[slug]
	return def, ok
}

// Event returns the definition for an event name.
func (c *Catalog) Event(name string) (EventDef, bool) {
	def, ok := c.Events[name]
	return def, ok
}

// Action returns the definition for an action key.
func (c *Catalog) Action(key string) (ActionDef, bool) {
	def, ok := c.Actions[key]
	return def, ok
}
