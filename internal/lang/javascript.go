package lang

func init() {
	Register(&LanguageSpec{
		Language:       JavaScript,
		FileExtensions: []string{".js", ".jsx"},
		DefinitionQuery: `
			(class_declaration
				name: (identifier) @definition.class.name
				(class_heritage (identifier) @definition.class.base_name)?
				body: (class_body) @definition.class.body) @definition.class

			(function_declaration
				name: (identifier) @definition.function.name
				body: (statement_block) @definition.function.body) @definition.function

			(method_definition
				name: (property_identifier) @definition.method.name
				body: (statement_block) @definition.method.body) @definition.method

			(variable_declarator
				name: (identifier) @definition.variable.name
				value: [(arrow_function) (function_expression)] @definition.function.body) @definition.function
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
		PackageIndicators: []string{"index.js", "package.json"},
		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_case",
			"catch_clause", "ternary_expression",
		},
	})
}
