// ABOUTME: Handlers for cluster-wide rule configurations and properties
// ABOUTME: Both are versioned; only active version moves are applied

package handler

import (
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/metadata"
	"github.com/nainya/metacoord/pkg/nodepath"
)

// GlobalRuleChangedHandler keeps the active configuration of each global rule.
type GlobalRuleChangedHandler struct{}

func (GlobalRuleChangedHandler) SubscribedKey() string {
	return nodepath.MustToPath(nodepath.GlobalRuleNodePath{}, false)
}

func (GlobalRuleChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

func (GlobalRuleChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	captures, ok := nodepath.GlobalRuleSearchCriteria().Match(ev.Key)
	if !ok {
		return nil
	}
	rule, _ := captures.Named("rule")

	if ev.Type == event.Deleted {
		if captures.Rest() == "" {
			cm.MetaData.DropGlobalRule(rule)
		}
		return nil
	}

	vp, err := nodepath.NewVersionNodePath(nodepath.GlobalRuleNodePath{Rule: rule})
	if err != nil {
		return err
	}
	if !vp.IsActiveVersionPath(ev.Key) {
		return nil
	}
	content, err := loadActiveVersion(cm, vp, ev.Value)
	if err != nil {
		return err
	}
	cm.MetaData.AlterGlobalRule(rule, content)
	return nil
}

// PropertiesChangedHandler replaces the cluster properties on every new active version.
type PropertiesChangedHandler struct{}

func (PropertiesChangedHandler) SubscribedKey() string {
	return nodepath.MustToPath(nodepath.PropertiesNodePath{}, false)
}

func (PropertiesChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

func (PropertiesChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	vp, err := nodepath.NewVersionNodePath(nodepath.PropertiesNodePath{})
	if err != nil {
		return err
	}

	switch {
	case ev.Type == event.Deleted:
		if ev.Key == vp.Path() {
			cm.MetaData.ReplaceProps(nil)
		}
		return nil
	case !vp.IsActiveVersionPath(ev.Key):
		return nil
	}

	content, err := loadActiveVersion(cm, vp, ev.Value)
	if err != nil {
		return err
	}
	props, err := metadata.DecodeProps(content)
	if err != nil {
		return err
	}
	cm.MetaData.ReplaceProps(props)
	return nil
}
