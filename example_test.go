package gura

import "fmt"

func ExampleParse() {
	cfg, err := Parse("title: \"Gura Example\"\nport: 8080")
	if err != nil {
		panic(err)
	}
	title, _ := cfg.Obj.Get("title")
	port, _ := cfg.Obj.Get("port")
	fmt.Println(title.Str, port.Int)
	// Output: Gura Example 8080
}

func ExampleDump() {
	o := NewObj()
	o.Set("name", StringValue("deep thought"))
	o.Set("answer", IntValue(42))
	fmt.Println(Dump(ObjectValue(o)))
	// Output:
	// name: "deep thought"
	// answer: 42
}

func ExampleUnmarshal() {
	var cfg struct {
		Host string `gura:"host"`
		Port int    `gura:"port"`
	}
	if err := Unmarshal([]byte("host: \"localhost\"\nport: 8080"), &cfg); err != nil {
		panic(err)
	}
	fmt.Println(cfg.Host, cfg.Port)
	// Output: localhost 8080
}

func ExampleMarshal() {
	out, err := Marshal(map[string]any{"debug": true, "level": 3})
	if err != nil {
		panic(err)
	}
	fmt.Print(string(out))
	// Output:
	// debug: true
	// level: 3
}
