package scanner

// Queries hold one declaration pattern per line. Every pattern captures the
// whole declaration as @def and its identifier as @name.
var Queries = map[string]string{
	"go": `
		(function_declaration name: (identifier) @name) @def
		(method_declaration name: (field_identifier) @name) @def
		(type_declaration (type_spec name: (type_identifier) @name)) @def
		(field_declaration name: (field_identifier) @name) @def
		(const_spec name: (identifier) @name) @def
		(var_spec name: (identifier) @name) @def
	`,
	"python": `
		(function_definition name: (identifier) @name) @def
		(class_definition name: (identifier) @name) @def
	`,
	"javascript": `
		(function_declaration name: (identifier) @name) @def
		(class_declaration name: (identifier) @name) @def
		(method_definition name: (property_identifier) @name) @def
		(field_definition property: (property_identifier) @name) @def
		(variable_declarator name: (identifier) @name) @def
	`,
	"typescript": `
		(function_declaration name: (identifier) @name) @def
		(class_declaration name: (type_identifier) @name) @def
		(abstract_class_declaration name: (type_identifier) @name) @def
		(method_definition name: (property_identifier) @name) @def
		(method_signature name: (property_identifier) @name) @def
		(public_field_definition name: (property_identifier) @name) @def
		(interface_declaration name: (type_identifier) @name) @def
		(type_alias_declaration name: (type_identifier) @name) @def
		(enum_declaration name: (identifier) @name) @def
		(variable_declarator name: (identifier) @name) @def
	`,
}
