package service

import "librarium/internal/model"

// creatableRoles encodes the role hierarchy as a static table: which account
// roles each role may create. EndUser creates nothing.
var creatableRoles = map[model.Role][]model.Role{
	model.RoleSystemAdmin: {model.RoleAdmin, model.RoleLibrarian},
	model.RoleAdmin:       {model.RoleAdmin, model.RoleLibrarian},
	model.RoleLibrarian:   {model.RoleEndUser},
	model.RoleEndUser:     {},
}

// CanCreate reports whether an account with creator's role may create an
// account with the target role.
func CanCreate(creator, target model.Role) bool {
	for _, allowed := range creatableRoles[creator] {
		if allowed == target {
			return true
		}
	}
	return false
}
