package planning

// Skill names a capability. Resources advertise the skills they master and
// loads may require a skill, allowing a load to pick any qualified resource.
type Skill struct {
	name      string
	resources []*ResourceSkill
}

// Name returns the unique skill name.
func (s *Skill) Name() string { return s.name }

// Resources returns the resource associations of this skill.
func (s *Skill) Resources() []*ResourceSkill { return s.resources }

// ResourceSkill associates a resource with a skill it masters, with a
// priority and an effectivity window.
type ResourceSkill struct {
	skill     *Skill
	resource  *Resource
	priority  int
	effective DateRange
}

// NewResourceSkill records that a resource masters a skill.
func NewResourceSkill(skill *Skill, resource *Resource, priority int) (*ResourceSkill, error) {
	if skill == nil || resource == nil {
		return nil, NewDataError("resource-skill association needs both a skill and a resource")
	}
	for _, rs := range skill.resources {
		if rs.resource == resource {
			return nil, NewDataError("resource '%s' already has skill '%s'", resource.Name(), skill.Name())
		}
	}
	rs := &ResourceSkill{skill: skill, resource: resource, priority: priority, effective: EffectiveAlways()}
	skill.resources = append(skill.resources, rs)
	resource.skills = append(resource.skills, rs)
	return rs, nil
}

// Skill returns the associated skill.
func (rs *ResourceSkill) Skill() *Skill { return rs.skill }

// Resource returns the associated resource.
func (rs *ResourceSkill) Resource() *Resource { return rs.resource }

// Priority returns the association priority.
func (rs *ResourceSkill) Priority() int { return rs.priority }

// Effective returns the date range in which the association applies.
func (rs *ResourceSkill) Effective() DateRange { return rs.effective }

// SetEffective updates the effectivity range.
func (rs *ResourceSkill) SetEffective(r DateRange) { rs.effective = r }
