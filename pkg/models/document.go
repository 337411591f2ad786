package models

// Document is an annotation serialized for one viewer population. It is
// built fresh per connection and never shared between them.
type Document map[string]interface{}

// User returns the author identity recorded on the document.
func (d Document) User() string {
	user, _ := d["user"].(string)
	return user
}

// ReadPermissions returns permissions.read. ok is false when the field is
// missing or not a list of strings.
func (d Document) ReadPermissions() (principals []string, ok bool) {
	perms, isMap := d["permissions"].(map[string]interface{})
	if !isMap {
		return nil, false
	}

	switch read := perms["read"].(type) {
	case []string:
		return read, true
	case []interface{}:
		principals = make([]string, 0, len(read))
		for _, p := range read {
			s, isString := p.(string)
			if !isString {
				return nil, false
			}
			principals = append(principals, s)
		}
		return principals, true
	default:
		return nil, false
	}
}
