package lang

func init() {
	Register(&LanguageSpec{
		Language:       Go,
		FileExtensions: []string{".go"},
		DefinitionQuery: `
			(function_declaration
				name: (identifier) @definition.function.name
				parameters: (parameter_list
					(parameter_declaration type: (_) @definition.function.param_type)*)
				body: (block) @definition.function.body) @definition.function

			(method_declaration
				receiver: (parameter_list
					(parameter_declaration type: [
						(type_identifier) @definition.method.receiver_type
						(pointer_type (type_identifier) @definition.method.receiver_type)
					]))
				name: (field_identifier) @definition.method.name
				parameters: (parameter_list
					(parameter_declaration type: (_) @definition.method.param_type)*)
				body: (block) @definition.method.body) @definition.method

			(type_declaration
				(type_spec
					name: (type_identifier) @definition.class.name
					type: (struct_type
						body: (field_declaration_list
							(field_declaration
								!name
								type: [
									(type_identifier) @definition.class.base_name
									(pointer_type (type_identifier) @definition.class.base_name)
									(qualified_type name: (type_identifier) @definition.class.base_name)
								])*)))) @definition.class

			(type_declaration
				(type_spec
					name: (type_identifier) @definition.interface.name
					type: (interface_type))) @definition.interface

			(var_declaration
				(var_spec name: (identifier) @definition.variable.name)) @definition.variable
			(const_declaration
				(const_spec name: (identifier) @definition.variable.name)) @definition.variable
		`,
		ReferenceQuery: `
			(import_spec
				name: (package_identifier)? @reference.import.alias
				path: (interpreted_string_literal) @reference.import.path) @reference.import

			(call_expression
				function: (identifier) @reference.call.name) @reference.call

			(call_expression
				function: (selector_expression
					operand: (identifier) @reference.call.receiver
					field: (field_identifier) @reference.call.name)) @reference.call
		`,
		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "switch_statement",
			"type_switch_statement", "select_statement", "case_clause",
			"communication_case", "binary_expression",
		},
	})
}
