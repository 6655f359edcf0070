package form

// State значения полей формы. Значение неизменяемое: With и Reset возвращают копию.
type State struct {
	values map[string]string
}

// NewState все поля варианта пустые.
func NewState(v Variant) State {
	values := make(map[string]string, len(v.Fields))
	for _, f := range v.Fields {
		values[f.Name] = ""
	}
	return State{values: values}
}

func (s State) Get(name string) string {
	return s.values[name]
}

func (s State) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// With меняет ровно одно поле. Неизвестное имя возвращает исходное состояние.
func (s State) With(name, value string) State {
	if !s.Has(name) {
		return s
	}
	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	values[name] = value
	return State{values: values}
}

// Reset те же поля, все пустые.
func (s State) Reset() State {
	values := make(map[string]string, len(s.values))
	for k := range s.values {
		values[k] = ""
	}
	return State{values: values}
}

// Values копия значений.
func (s State) Values() map[string]string {
	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return values
}
