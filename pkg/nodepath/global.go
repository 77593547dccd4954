package nodepath

var (
	globalRuleTemplate = MustParseTemplate("/rules/${rule}")
	propertiesTemplate = MustParseTemplate("/props")
)

// GlobalRuleNodePath addresses a cluster-wide rule configuration.
type GlobalRuleNodePath struct {
	Rule string
}

func (p GlobalRuleNodePath) Template() Template { return globalRuleTemplate }
func (p GlobalRuleNodePath) Values() []string   { return []string{p.Rule} }

// PropertiesNodePath addresses the cluster properties.
type PropertiesNodePath struct{}

func (PropertiesNodePath) Template() Template { return propertiesTemplate }
func (PropertiesNodePath) Values() []string   { return nil }

// GlobalRuleSearchCriteria captures the rule name of a global rule key.
func GlobalRuleSearchCriteria() SearchCriteria {
	return NewSearchCriteria(GlobalRuleNodePath{}, "rule")
}
