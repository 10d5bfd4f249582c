package lang

func init() {
	Register(&LanguageSpec{
		Language:       TypeScript,
		FileExtensions: []string{".ts", ".tsx"},
		DefinitionQuery: `
			(class_declaration
				name: (type_identifier) @definition.class.name
				(class_heritage
					(extends_clause value: (identifier) @definition.class.base_name))?
				body: (class_body) @definition.class.body) @definition.class

			(interface_declaration
				name: (type_identifier) @definition.interface.name
				body: (interface_body) @definition.interface.body) @definition.interface

			(function_declaration
				name: (identifier) @definition.function.name
				parameters: (formal_parameters
					(required_parameter type: (type_annotation (_) @definition.function.param_type))*)
				body: (statement_block) @definition.function.body) @definition.function

			(method_definition
				name: (property_identifier) @definition.method.name
				body: (statement_block) @definition.method.body) @definition.method

			(type_alias_declaration
				name: (type_identifier) @definition.class.name) @definition.class
		`,
		ReferenceQuery: `
			(import_statement
				source: (string) @reference.import.path) @reference.import

			(call_expression
				function: (identifier) @reference.call.name) @reference.call

			(call_expression
				function: (member_expression
					object: (identifier) @reference.call.receiver
					property: (property_identifier) @reference.call.name)) @reference.call
		`,
		PackageIndicators: []string{"index.ts", "package.json"},
		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_case",
			"catch_clause", "ternary_expression",
		},
	})
}
