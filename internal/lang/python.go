package lang

func init() {
	Register(&LanguageSpec{
		Language:       Python,
		FileExtensions: []string{".py"},
		DefinitionQuery: `
			(class_definition
				name: (identifier) @definition.class.name
				superclasses: (argument_list (identifier) @definition.class.base_name)*
				body: (block) @definition.class.body) @definition.class

			(function_definition
				name: (identifier) @definition.function.name
				parameters: (parameters
					(identifier)* @definition.function.param
					(typed_parameter type: (_) @definition.function.param_type)*)
				body: (block) @definition.function.body) @definition.function

			(expression_statement
				(assignment left: (identifier) @definition.variable.name)) @definition.variable
		`,
		ReferenceQuery: `
			(import_statement
				name: (dotted_name) @reference.import.path) @reference.import
			(import_from_statement
				module_name: (dotted_name) @reference.import.path
				name: (dotted_name) @reference.import.alias) @reference.import

			(call
				function: (identifier) @reference.call.name) @reference.call

			(call
				function: (attribute
					object: (identifier) @reference.call.receiver
					attribute: (identifier) @reference.call.name)) @reference.call
		`,
		PackageIndicators: []string{"__init__.py"},
		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "while_statement",
			"try_statement", "except_clause", "with_statement",
			"boolean_operator", "conditional_expression",
		},
	})
}
